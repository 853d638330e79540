// Package messages defines Bubbletea message types for the TUI.
// Messages carry pipeline events from the analysis goroutine into the Elm loop.
package messages

import (
	"fmt"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// Progress carries a pipeline progress event.
type Progress struct {
	Event domain.ProgressEvent
}

// RunCompleted carries the outcome of the analysis.
type RunCompleted struct {
	Run *domain.Run
	Err error
}

// StageLabel returns a short human-readable description of an event.
func StageLabel(ev domain.ProgressEvent) string {
	switch ev.Kind {
	case domain.ProgressLoaded:
		return "Report loaded, chunking"
	case domain.ProgressChunked:
		return fmt.Sprintf("Embedding %d chunks", ev.Chunks)
	case domain.ProgressIndexed:
		return fmt.Sprintf("Indexed %d chunks", ev.Chunks)
	case domain.ProgressQuestionStart:
		return fmt.Sprintf("Answering question %d/%d", ev.Index+1, ev.Total)
	case domain.ProgressQuestionDone:
		return fmt.Sprintf("Answered question %d/%d", ev.Index+1, ev.Total)
	case domain.ProgressDeciding:
		return "Aggregating verdict"
	case domain.ProgressDone:
		return "Done"
	default:
		return "Loading report"
	}
}

// Fraction returns how much of a run over total questions is complete once
// ev has been observed. Preparation and the verdict count as one step each
// alongside one step per question.
func Fraction(ev domain.ProgressEvent, total int) float64 {
	steps := float64(total + 4)
	var done float64
	switch ev.Kind {
	case domain.ProgressLoaded:
		done = 1
	case domain.ProgressChunked:
		done = 2
	case domain.ProgressIndexed, domain.ProgressQuestionStart:
		done = 3 + float64(ev.Index)
	case domain.ProgressQuestionDone:
		done = 3 + float64(ev.Index+1)
	case domain.ProgressDeciding:
		done = 3 + float64(total)
	case domain.ProgressDone:
		return 1
	}
	return done / steps
}
