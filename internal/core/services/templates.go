package services

import (
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// Ensure TemplateService implements the interface.
var _ driving.TemplateService = (*TemplateService)(nil)

// TemplateService exposes the prompt templates known to a store.
type TemplateService struct {
	store driven.TemplateStore
}

// NewTemplateService creates a template service over store.
func NewTemplateService(store driven.TemplateStore) *TemplateService {
	return &TemplateService{store: store}
}

// List returns the ids of all known templates.
func (s *TemplateService) List() ([]string, error) {
	return s.store.List()
}

// Show returns the raw text of a template.
func (s *TemplateService) Show(id string) (string, error) {
	tmpl, err := s.store.Load(id)
	if err != nil {
		return "", err
	}
	return tmpl.Text(), nil
}
