package mcp

import (
	"context"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	run       *domain.Run
	answer    *domain.Answer
	questions []string
	err       error

	lastURI  string
	lastOpts driving.AnalyzeOptions
}

func (m *mockAnalysisService) Analyze(
	_ context.Context,
	uri string,
	opts driving.AnalyzeOptions,
) (*domain.Run, error) {
	m.lastURI = uri
	m.lastOpts = opts
	return m.run, m.err
}

func (m *mockAnalysisService) Ask(_ context.Context, uri, question string) (*domain.Answer, error) {
	m.lastURI = uri
	if m.answer == nil && m.err == nil {
		return &domain.Answer{Question: question, Text: "answer to " + question}, nil
	}
	return m.answer, m.err
}

func (m *mockAnalysisService) Questions() []string {
	return m.questions
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	runs []domain.RunSummary
	run  *domain.Run
	err  error
}

func (m *mockHistoryService) List(_ context.Context, _ int) ([]domain.RunSummary, error) {
	return m.runs, m.err
}

func (m *mockHistoryService) Get(_ context.Context, _ string) (*domain.Run, error) {
	return m.run, m.err
}

func (m *mockHistoryService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockTemplateService is a mock implementation of driving.TemplateService.
type mockTemplateService struct {
	templates map[string]string
}

func (m *mockTemplateService) List() ([]string, error) {
	ids := make([]string, 0, len(m.templates))
	for id := range m.templates {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockTemplateService) Show(id string) (string, error) {
	text, ok := m.templates[id]
	if !ok {
		return "", domain.ErrTemplateNotFound
	}
	return text, nil
}
