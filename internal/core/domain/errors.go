package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or template type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// Pipeline Errors.

	// ErrEmptyDocument indicates the report has no content to chunk.
	// Fatal: the run aborts before the index is built.
	ErrEmptyDocument = errors.New("empty document")

	// ErrEmbeddingService indicates the embedding service failed or returned malformed vectors.
	// Fatal during index build. Individual queries are retried before it surfaces.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrRetrievalEmpty indicates a query found no chunks.
	// Non-fatal: answering proceeds with an empty context.
	ErrRetrievalEmpty = errors.New("retrieval returned no chunks")

	// ErrTemplateNotFound indicates a prompt template id is unknown.
	// Fatal: the run aborts before any generation.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrCompletionService indicates a generation call failed after retries.
	ErrCompletionService = errors.New("completion service error")

	// ErrDecisionGeneration indicates the verdict could not be generated.
	// There is no fallback verdict.
	ErrDecisionGeneration = errors.New("decision generation error")

	// ErrCancelled indicates the run was cancelled between steps.
	// It is distinct from service failures.
	ErrCancelled = errors.New("cancelled")

	// ErrInvalidTransition indicates an event was applied to a session in the wrong state.
	ErrInvalidTransition = errors.New("invalid session transition")
)

// Stage names the pipeline step that produced a failure.
type Stage string

// Pipeline stages.
const (
	StageLoad     Stage = "load"
	StageChunk    Stage = "chunk"
	StageTemplate Stage = "template"
	StageIndex    Stage = "index"
	StageRetrieve Stage = "retrieve"
	StageGenerate Stage = "generate"
	StageDecide   Stage = "decide"
	StageStore    Stage = "store"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// StageError is a fatal pipeline failure tagged with the stage and, for
// per-question stages, the question that failed.
type StageError struct {
	// Stage is the step that failed.
	Stage Stage

	// QuestionIndex is the position of the failing question, or -1.
	QuestionIndex int

	// Question is the failing question text, empty for document-level stages.
	Question string

	// Err is the underlying error, usually wrapping one of the sentinels above.
	Err error
}

// NewStageError creates a document-level stage error.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, QuestionIndex: -1, Err: err}
}

// NewQuestionError creates a stage error for a specific question.
func NewQuestionError(stage Stage, index int, question string, err error) *StageError {
	return &StageError{Stage: stage, QuestionIndex: index, Question: question, Err: err}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.QuestionIndex >= 0 {
		return fmt.Sprintf("%s failed at question %d (%q): %v", e.Stage, e.QuestionIndex+1, e.Question, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// StageOf returns the failing stage if err carries a StageError.
func StageOf(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
