package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
// Runs are copied on the way in and out.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.Run
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*domain.Run),
	}
}

// Save stores a run.
func (s *RunStore) Save(_ context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = cloneRun(run)
	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(_ context.Context, id string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRun(run), nil
}

// List returns run summaries, newest first.
func (s *RunStore) List(_ context.Context, limit int) ([]domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		summaries = append(summaries, domain.RunSummary{
			ID:          run.ID,
			ReportTitle: run.ReportTitle,
			ReportURI:   run.ReportURI,
			Questions:   len(run.Answers),
			CreatedAt:   run.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Delete removes a run.
func (s *RunStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

func cloneRun(run *domain.Run) *domain.Run {
	c := *run
	c.Questions = append([]string(nil), run.Questions...)
	c.Answers = append([]domain.Answer(nil), run.Answers...)
	return &c
}
