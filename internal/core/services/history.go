package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes stored analysis runs.
type HistoryService struct {
	runs driven.RunStore
}

// NewHistoryService creates a history service over runs.
func NewHistoryService(runs driven.RunStore) *HistoryService {
	return &HistoryService{runs: runs}
}

// List returns up to limit run summaries, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.RunSummary, error) {
	return s.runs.List(ctx, limit)
}

// Get returns a stored run by ID or unique ID prefix.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.Run, error) {
	resolved, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.runs.Get(ctx, resolved)
}

// Delete removes a stored run by ID or unique ID prefix.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	resolved, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	return s.runs.Delete(ctx, resolved)
}

// resolve expands a short ID prefix to a full run ID.
func (s *HistoryService) resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}
	if _, err := s.runs.Get(ctx, id); err == nil {
		return id, nil
	}

	summaries, err := s.runs.List(ctx, 0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range summaries {
		if strings.HasPrefix(r.ID, id) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: run id %q is ambiguous (%d matches)", domain.ErrInvalidInput, id, len(matches))
	}
}
