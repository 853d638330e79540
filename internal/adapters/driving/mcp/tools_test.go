package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

func newTestServer(t *testing.T, analysis *mockAnalysisService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{Analysis: analysis})
	require.NoError(t, err)
	return server
}

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answers and verdict", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{
			run: &domain.Run{
				ID:          "run-1",
				ReportTitle: "Bridge Report",
				Answers: []domain.Answer{
					{Question: "What is the objective?", Text: "Build a bridge."},
					{Question: "What is the budget?", Text: "$500."},
				},
				Decision: domain.DecisionRecord{Verdict: "APPROVE"},
			},
		}
		server := newTestServer(t, mockAnalysis)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "/reports/bridge.md"})

		require.NoError(t, err)
		assert.Equal(t, "/reports/bridge.md", mockAnalysis.lastURI)
		assert.Nil(t, mockAnalysis.lastOpts.Questions)
		assert.Equal(t, "run-1", output.RunID)
		assert.Equal(t, "Bridge Report", output.ReportTitle)
		assert.Equal(t, "APPROVE", output.Verdict)
		require.Len(t, output.Answers, 2)
		assert.Equal(t, AnswerOutput{Question: "What is the budget?", Answer: "$500."}, output.Answers[1])
	})

	t.Run("passes custom questions", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{run: &domain.Run{ID: "run-2"}}
		server := newTestServer(t, mockAnalysis)

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{
			Path:      "report.md",
			Questions: []string{"Who is the contractor?"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"Who is the contractor?"}, mockAnalysis.lastOpts.Questions)
	})

	t.Run("requires a path", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{})

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "  "})

		assert.ErrorIs(t, err, errMissingPath)
	})

	t.Run("returns error on pipeline failure", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{
			err: domain.NewStageError(domain.StageDecide, domain.ErrDecisionGeneration),
		})

		_, _, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Path: "report.md"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDecisionGeneration)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("answers the question", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Path: "report.md", Question: "What is the budget?"})

		require.NoError(t, err)
		assert.Equal(t, "What is the budget?", output.Question)
		assert.Equal(t, "answer to What is the budget?", output.Answer)
	})

	t.Run("requires path and question", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, errMissingPath)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Path: "report.md"})
		assert.Error(t, err)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &mockAnalysisService{err: errors.New("load failed")})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Path: "report.md", Question: "q"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load failed")
	})
}

func TestServer_handleListQuestions(t *testing.T) {
	server := newTestServer(t, &mockAnalysisService{questions: domain.DefaultQuestions()})

	_, output, err := server.handleListQuestions(context.Background(), nil, ListQuestionsInput{})

	require.NoError(t, err)
	assert.Equal(t, len(domain.StandardQuestions), output.Count)
	assert.Equal(t, domain.StandardQuestions, output.Questions)
}
