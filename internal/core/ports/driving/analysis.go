package driving

import (
	"context"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// AnalyzeOptions configures a full analysis run.
type AnalyzeOptions struct {
	// Questions overrides the configured question list. Nil uses the default battery.
	Questions []string

	// OnProgress receives progress notifications. May be nil.
	OnProgress domain.ProgressFunc
}

// AnalysisService runs the two-stage audit pipeline over a report.
type AnalysisService interface {
	// Analyze answers every question about the report and aggregates a verdict.
	// A failed run returns a *domain.StageError and no partial result.
	Analyze(ctx context.Context, uri string, opts AnalyzeOptions) (*domain.Run, error)

	// Ask answers a single question about the report.
	Ask(ctx context.Context, uri, question string) (*domain.Answer, error)

	// Questions returns the default question list.
	Questions() []string
}

// HistoryService exposes stored runs.
type HistoryService interface {
	// List returns run summaries, newest first.
	List(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Get returns a stored run by ID.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// Delete removes a stored run.
	Delete(ctx context.Context, id string) error
}
