package domain

// ProgressKind identifies a pipeline progress notification.
type ProgressKind string

// Progress kinds, in the order a run emits them.
const (
	ProgressLoaded        ProgressKind = "loaded"
	ProgressChunked       ProgressKind = "chunked"
	ProgressIndexed       ProgressKind = "indexed"
	ProgressQuestionStart ProgressKind = "question_start"
	ProgressQuestionDone  ProgressKind = "question_done"
	ProgressDeciding      ProgressKind = "deciding"
	ProgressDone          ProgressKind = "done"
)

// ProgressEvent reports how far a run has got.
// Index and Total are only set for question events.
type ProgressEvent struct {
	Kind     ProgressKind
	Index    int
	Total    int
	Question string
	Chunks   int
}

// ProgressFunc receives progress events. It is called synchronously from the
// pipeline and must not block.
type ProgressFunc func(ProgressEvent)
