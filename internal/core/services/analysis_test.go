package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/adapters/driven/storage/memory"
	vectormem "github.com/custodia-labs/auditrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
	"github.com/custodia-labs/auditrag/internal/postprocessors/chunker"
)

const bridgeReport = "Budget approved: $500. Objective: build a bridge."

type analysisFixture struct {
	source    *mockSource
	embedder  *mockEmbedder
	llm       *mockLLM
	templates *mockTemplateStore
	runs      *memory.RunStore
}

func newFixture() *analysisFixture {
	return &analysisFixture{
		source:    &mockSource{reports: map[string]string{"report.txt": bridgeReport}},
		embedder:  newMockEmbedder("budget", "objective", "bridge"),
		llm:       echoLLM(),
		templates: newMockTemplateStore(answerTemplate(), decisionTemplate()),
		runs:      memory.NewRunStore(),
	}
}

func (f *analysisFixture) deps(t *testing.T) AnalysisDeps {
	t.Helper()
	split, err := chunker.New()
	require.NoError(t, err)
	return AnalysisDeps{
		Source:    f.source,
		Chunker:   split,
		Embedder:  f.embedder,
		LLM:       f.llm,
		Templates: f.templates,
		NewIndex:  vectormem.Factory,
		Runs:      f.runs,
	}
}

func (f *analysisFixture) service(t *testing.T, opts ...AnalysisOption) *AnalysisService {
	t.Helper()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	opts = append([]AnalysisOption{
		WithRetryPolicy(fastRetry(2)),
		WithClock(func() time.Time { return fixed }),
		WithRunIDFunc(func() string { return "run-1" }),
	}, opts...)
	s, err := NewAnalysisService(f.deps(t), opts...)
	require.NoError(t, err)
	return s
}

func TestNewAnalysisService_ValidatesDeps(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name   string
		mutate func(*AnalysisDeps)
		want   error
	}{
		{"no source", func(d *AnalysisDeps) { d.Source = nil }, domain.ErrInvalidInput},
		{"no chunker", func(d *AnalysisDeps) { d.Chunker = nil }, domain.ErrInvalidInput},
		{"no templates", func(d *AnalysisDeps) { d.Templates = nil }, domain.ErrInvalidInput},
		{"no index factory", func(d *AnalysisDeps) { d.NewIndex = nil }, domain.ErrInvalidInput},
		{"no embedder", func(d *AnalysisDeps) { d.Embedder = nil }, domain.ErrEmbeddingUnavailable},
		{"no llm", func(d *AnalysisDeps) { d.LLM = nil }, domain.ErrLLMUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := f.deps(t)
			tt.mutate(&deps)
			s, err := NewAnalysisService(deps)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("history is optional", func(t *testing.T) {
		deps := f.deps(t)
		deps.Runs = nil
		_, err := NewAnalysisService(deps)
		assert.NoError(t, err)
	})
}

func TestAnalysisService_Questions(t *testing.T) {
	f := newFixture()

	assert.Equal(t, domain.StandardQuestions, f.service(t).Questions())

	custom := f.service(t, WithQuestions([]string{"a", "b"}))
	qs := custom.Questions()
	assert.Equal(t, []string{"a", "b"}, qs)
	qs[0] = "changed"
	assert.Equal(t, "a", custom.Questions()[0])
}

func TestAnalysisService_Analyze(t *testing.T) {
	f := newFixture()
	questions := []string{"What is the budget?", "What is the objective?"}
	var kinds []domain.ProgressKind

	run, err := f.service(t).Analyze(context.Background(), "report.txt", driving.AnalyzeOptions{
		Questions:  questions,
		OnProgress: func(ev domain.ProgressEvent) { kinds = append(kinds, ev.Kind) },
	})

	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "report.txt", run.ReportURI)
	assert.Equal(t, questions, run.Questions)
	assert.Equal(t, []domain.Answer{
		{Question: "What is the budget?", Text: "ANSWER:What is the budget?"},
		{Question: "What is the objective?", Text: "ANSWER:What is the objective?"},
	}, run.Answers)
	assert.Equal(t, "VERDICT:ok", run.Verdict())
	assert.Equal(t, "ANSWER:What is the budget?\n\nANSWER:What is the objective?", run.Decision.AnalysisText)
	assert.Equal(t, 1, run.ChunkCount)
	assert.Equal(t, "mock-llm", run.LLMModel)
	assert.Equal(t, "mock-embed", run.EmbeddingModel)

	assert.Equal(t, []domain.ProgressKind{
		domain.ProgressLoaded,
		domain.ProgressChunked,
		domain.ProgressIndexed,
		domain.ProgressQuestionStart, domain.ProgressQuestionDone,
		domain.ProgressQuestionStart, domain.ProgressQuestionDone,
		domain.ProgressDeciding,
		domain.ProgressDone,
	}, kinds)

	stored, err := f.runs.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Decision, stored.Decision)
}

func TestAnalysisService_Analyze_DefaultQuestions(t *testing.T) {
	f := newFixture()

	run, err := f.service(t).Analyze(context.Background(), "report.txt", driving.AnalyzeOptions{})

	require.NoError(t, err)
	assert.Len(t, run.Answers, len(domain.StandardQuestions))
	assert.Len(t, f.llm.calls(), len(domain.StandardQuestions)+1)
}

func TestAnalysisService_Analyze_ZeroQuestions(t *testing.T) {
	f := newFixture()

	run, err := f.service(t).Analyze(context.Background(), "report.txt",
		driving.AnalyzeOptions{Questions: []string{}})

	require.NoError(t, err)
	assert.Empty(t, run.Answers)
	assert.Equal(t, "VERDICT:ok", run.Verdict())
	assert.Equal(t, []string{"Decide on:\n"}, f.llm.calls())
}

func TestAnalysisService_Analyze_UnknownTemplateFailsBeforeWork(t *testing.T) {
	f := newFixture()

	_, err := f.service(t, WithTemplateIDs("", "missing")).
		Analyze(context.Background(), "report.txt", driving.AnalyzeOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageTemplate, stage)
	assert.Zero(t, f.source.loads)
	assert.Empty(t, f.llm.calls())
}

func TestAnalysisService_Analyze_TemplateReadError(t *testing.T) {
	f := newFixture()
	f.templates.loadErr = errors.New("permission denied")

	_, err := f.service(t).Analyze(context.Background(), "report.txt", driving.AnalyzeOptions{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTemplateNotFound)
	assert.ErrorContains(t, err, "permission denied")
	stage, _ := domain.StageOf(err)
	assert.Equal(t, domain.StageTemplate, stage)
	assert.Zero(t, f.source.loads)
}

func TestAnalysisService_Analyze_StageErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *analysisFixture)
		uri   string
		stage domain.Stage
		want  error
	}{
		{
			name:  "missing report",
			uri:   "nope.txt",
			stage: domain.StageLoad,
			want:  domain.ErrNotFound,
		},
		{
			name:  "empty report",
			setup: func(f *analysisFixture) { f.source.reports["report.txt"] = "" },
			stage: domain.StageChunk,
			want:  domain.ErrEmptyDocument,
		},
		{
			name:  "embedding outage",
			setup: func(f *analysisFixture) { f.embedder.batchErr = errBoom },
			stage: domain.StageIndex,
			want:  domain.ErrEmbeddingService,
		},
		{
			name: "verdict failure",
			setup: func(f *analysisFixture) {
				f.llm.respond = func(_ int, prompt string) (string, error) {
					if firstLine(prompt) == "Decide on:" {
						return "", errBoom
					}
					return "answer", nil
				}
			},
			stage: domain.StageDecide,
			want:  domain.ErrDecisionGeneration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			uri := tt.uri
			if uri == "" {
				uri = "report.txt"
			}

			run, err := f.service(t).Analyze(context.Background(), uri,
				driving.AnalyzeOptions{Questions: []string{"q"}})

			assert.Nil(t, run)
			assert.ErrorIs(t, err, tt.want)
			stage, ok := domain.StageOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.stage, stage)

			runs, err := f.runs.List(context.Background(), 0)
			require.NoError(t, err)
			assert.Empty(t, runs, "failed runs store nothing")
		})
	}
}

func TestAnalysisService_Analyze_VerdictRetry(t *testing.T) {
	f := newFixture()
	failures := 1
	f.llm.respond = func(_ int, prompt string) (string, error) {
		if firstLine(prompt) == "Decide on:" && failures > 0 {
			failures--
			return "", errBoom
		}
		return "VERDICT:ok", nil
	}

	_, err := f.service(t).Analyze(context.Background(), "report.txt",
		driving.AnalyzeOptions{Questions: []string{"q"}})
	require.Error(t, err, "the verdict makes a single attempt by default")

	failures = 1
	run, err := f.service(t, WithVerdictRetry(fastRetry(2))).Analyze(context.Background(), "report.txt",
		driving.AnalyzeOptions{Questions: []string{"q"}})
	require.NoError(t, err)
	assert.Equal(t, "VERDICT:ok", run.Verdict())
}

func TestAnalysisService_Analyze_Cancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service(t).Analyze(ctx, "report.txt", driving.AnalyzeOptions{Questions: []string{"q"}})

	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.Empty(t, f.llm.calls())
}

func TestAnalysisService_Analyze_WithoutHistory(t *testing.T) {
	f := newFixture()
	deps := f.deps(t)
	deps.Runs = nil
	s, err := NewAnalysisService(deps, WithRetryPolicy(fastRetry(1)))
	require.NoError(t, err)

	run, err := s.Analyze(context.Background(), "report.txt", driving.AnalyzeOptions{Questions: []string{"q"}})

	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
}

func TestAnalysisService_Ask(t *testing.T) {
	f := newFixture()

	answer, err := f.service(t).Ask(context.Background(), "report.txt", "What is the budget?")

	require.NoError(t, err)
	assert.Equal(t, &domain.Answer{Question: "What is the budget?", Text: "ANSWER:What is the budget?"}, answer)
	assert.Len(t, f.llm.calls(), 1)

	runs, err := f.runs.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "single questions are not stored")
}

func TestAnalysisService_Ask_Failure(t *testing.T) {
	f := newFixture()
	f.llm.respond = func(int, string) (string, error) { return "", errBoom }

	_, err := f.service(t).Ask(context.Background(), "report.txt", "q")

	var se *domain.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, domain.StageGenerate, se.Stage)
	assert.Equal(t, "q", se.Question)
	assert.ErrorIs(t, err, domain.ErrCompletionService)
}
