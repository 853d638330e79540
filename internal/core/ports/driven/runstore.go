package driven

import (
	"context"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// RunStore persists completed analysis runs.
// Backed by SQLite for run history.
type RunStore interface {
	// Save stores a run. Saving an existing ID replaces it.
	Save(ctx context.Context, run *domain.Run) error

	// Get retrieves a run by ID.
	// Returns domain.ErrNotFound if the run does not exist.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// List returns summaries of stored runs, newest first.
	// A limit of zero or less returns all runs.
	List(ctx context.Context, limit int) ([]domain.RunSummary, error)

	// Delete removes a run.
	Delete(ctx context.Context, id string) error
}
