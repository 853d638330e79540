package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisDeps are the collaborators a pipeline is assembled from.
// All fields except Runs are required.
type AnalysisDeps struct {
	Source    driven.DocumentSource
	Chunker   driven.Chunker
	Embedder  driven.EmbeddingService
	LLM       driven.LLMService
	Templates driven.TemplateStore
	NewIndex  driven.VectorIndexFactory

	// Runs stores completed runs. Nil disables history.
	Runs driven.RunStore
}

func (d AnalysisDeps) validate() error {
	var missing []string
	if d.Source == nil {
		missing = append(missing, "document source")
	}
	if d.Chunker == nil {
		missing = append(missing, "chunker")
	}
	if d.Templates == nil {
		missing = append(missing, "template store")
	}
	if d.NewIndex == nil {
		missing = append(missing, "vector index factory")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", domain.ErrInvalidInput, missing)
	}
	if d.Embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if d.LLM == nil {
		return domain.ErrLLMUnavailable
	}
	return nil
}

// AnalysisService runs the full audit pipeline for one report at a time.
// It holds no per-run state and may serve concurrent runs.
type AnalysisService struct {
	deps             AnalysisDeps
	questions        []string
	answerTemplate   string
	decisionTemplate string
	builder          *IndexBuilder
	answerer         *Answerer
	qna              *QnAService
	decider          *DecisionService
	now              func() time.Time
	newID            func() string

	topK        int
	retry       RetryPolicy
	answerOpts  driven.GenerateOptions
	decideOpts  driven.GenerateOptions
	decideRetry *RetryPolicy
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithQuestions sets the default question list.
func WithQuestions(questions []string) AnalysisOption {
	return func(s *AnalysisService) {
		s.questions = append([]string(nil), questions...)
	}
}

// WithTemplateIDs sets the answer and decision template ids.
// Empty ids keep the defaults.
func WithTemplateIDs(answer, decision string) AnalysisOption {
	return func(s *AnalysisService) {
		if answer != "" {
			s.answerTemplate = answer
		}
		if decision != "" {
			s.decisionTemplate = decision
		}
	}
}

// WithRetrieval sets the number of chunks retrieved per question.
func WithRetrieval(topK int) AnalysisOption {
	return func(s *AnalysisService) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// WithRetryPolicy sets the retry policy for embedding and completion calls.
func WithRetryPolicy(p RetryPolicy) AnalysisOption {
	return func(s *AnalysisService) {
		s.retry = p
	}
}

// WithVerdictRetry overrides the retry policy of the verdict call, which
// otherwise makes a single attempt.
func WithVerdictRetry(p RetryPolicy) AnalysisOption {
	return func(s *AnalysisService) {
		s.decideRetry = &p
	}
}

// WithGeneration sets completion options for answers and the verdict.
func WithGeneration(answer, decision driven.GenerateOptions) AnalysisOption {
	return func(s *AnalysisService) {
		s.answerOpts = answer
		s.decideOpts = decision
	}
}

// WithClock sets the time source used to stamp runs.
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunIDFunc sets the run ID generator.
func WithRunIDFunc(fn func() string) AnalysisOption {
	return func(s *AnalysisService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewAnalysisService assembles the pipeline from deps.
func NewAnalysisService(deps AnalysisDeps, opts ...AnalysisOption) (*AnalysisService, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	s := &AnalysisService{
		deps:             deps,
		questions:        domain.DefaultQuestions(),
		answerTemplate:   domain.DefaultAnswerTemplate,
		decisionTemplate: domain.DefaultDecisionTemplate,
		now:              time.Now,
		newID:            func() string { return uuid.New().String() },
		topK:             DefaultTopK,
		retry:            DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.builder, err = NewIndexBuilder(deps.Embedder, deps.NewIndex, WithIndexRetry(s.retry))
	if err != nil {
		return nil, err
	}
	s.answerer, err = NewAnswerer(deps.LLM,
		WithTopK(s.topK), WithAnswerRetry(s.retry), WithGenerateOptions(s.answerOpts))
	if err != nil {
		return nil, err
	}
	s.qna, err = NewQnAService(s.answerer)
	if err != nil {
		return nil, err
	}
	verdictRetry := s.retry.Once()
	if s.decideRetry != nil {
		verdictRetry = *s.decideRetry
	}
	s.decider, err = NewDecisionService(deps.LLM,
		WithDecisionRetry(verdictRetry), WithDecisionGenerateOptions(s.decideOpts))
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Questions returns the default question list.
func (s *AnalysisService) Questions() []string {
	return append([]string(nil), s.questions...)
}

// Analyze loads the report at uri, answers every question against it and
// aggregates a verdict. Templates are resolved before any other work so an
// unknown template fails the run before generation. Nothing is stored
// unless the run succeeds.
func (s *AnalysisService) Analyze(ctx context.Context, uri string, opts driving.AnalyzeOptions) (*domain.Run, error) {
	started := s.now()
	progress := opts.OnProgress
	if progress == nil {
		progress = func(domain.ProgressEvent) {}
	}
	questions := s.questions
	if opts.Questions != nil {
		questions = opts.Questions
	}

	logger.Section("Analyze Report")
	logger.Debug("Report: %s, %d questions", uri, len(questions))

	answerTmpl, decisionTmpl, err := s.loadTemplates()
	if err != nil {
		return nil, err
	}

	report, index, err := s.prepare(ctx, uri, progress)
	if err != nil {
		return nil, err
	}
	defer index.Close()

	answers, err := s.qna.RunWithProgress(ctx, questions, index, answerTmpl, progress)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewStageError(domain.StageDecide, fmt.Errorf("%w: %w", domain.ErrCancelled, err))
	}
	progress(domain.ProgressEvent{Kind: domain.ProgressDeciding, Total: len(questions)})
	decision, err := s.decider.Decide(ctx, answers.AnalysisText(), decisionTmpl)
	if err != nil {
		return nil, domain.NewStageError(domain.StageDecide, err)
	}

	run := &domain.Run{
		ID:             s.newID(),
		ReportTitle:    report.Title,
		ReportURI:      report.URI,
		Questions:      append([]string(nil), questions...),
		Answers:        answers.Answers(),
		Decision:       decision,
		LLMModel:       s.deps.LLM.ModelName(),
		EmbeddingModel: s.deps.Embedder.ModelName(),
		ChunkCount:     index.Len(),
		CreatedAt:      started,
		Duration:       s.now().Sub(started),
	}

	if s.deps.Runs != nil {
		if err := s.deps.Runs.Save(ctx, run); err != nil {
			return nil, domain.NewStageError(domain.StageStore, err)
		}
		logger.Debug("Stored run %s", run.ID)
	}

	progress(domain.ProgressEvent{Kind: domain.ProgressDone, Total: len(questions)})
	return run, nil
}

// Ask answers a single question about the report at uri.
func (s *AnalysisService) Ask(ctx context.Context, uri, question string) (*domain.Answer, error) {
	tmpl, err := s.loadTemplate(s.answerTemplate)
	if err != nil {
		return nil, err
	}

	_, index, err := s.prepare(ctx, uri, func(domain.ProgressEvent) {})
	if err != nil {
		return nil, err
	}
	defer index.Close()

	chunks, err := s.answerer.Retrieve(ctx, index, question)
	if err != nil {
		return nil, domain.NewQuestionError(domain.StageRetrieve, 0, question, err)
	}
	text, err := s.answerer.Generate(ctx, question, chunks, tmpl)
	if err != nil {
		return nil, domain.NewQuestionError(domain.StageGenerate, 0, question, err)
	}
	return &domain.Answer{Question: question, Text: text}, nil
}

// prepare loads, chunks and indexes a report.
func (s *AnalysisService) prepare(
	ctx context.Context, uri string, progress domain.ProgressFunc,
) (*domain.Report, *RetrievalIndex, error) {
	report, err := s.deps.Source.Load(ctx, uri)
	if err != nil {
		return nil, nil, domain.NewStageError(domain.StageLoad, err)
	}
	progress(domain.ProgressEvent{Kind: domain.ProgressLoaded})

	chunks, err := s.deps.Chunker.Split(report.Content)
	if err != nil {
		return nil, nil, domain.NewStageError(domain.StageChunk, err)
	}
	logger.Debug("Split %q into %d chunks", report.Title, len(chunks))
	progress(domain.ProgressEvent{Kind: domain.ProgressChunked, Chunks: len(chunks)})

	index, err := s.builder.Build(ctx, chunks)
	if err != nil {
		return nil, nil, domain.NewStageError(domain.StageIndex, err)
	}
	progress(domain.ProgressEvent{Kind: domain.ProgressIndexed, Chunks: index.Len()})
	return report, index, nil
}

func (s *AnalysisService) loadTemplates() (driven.Template, driven.Template, error) {
	answer, err := s.loadTemplate(s.answerTemplate)
	if err != nil {
		return nil, nil, err
	}
	decision, err := s.loadTemplate(s.decisionTemplate)
	if err != nil {
		return nil, nil, err
	}
	return answer, decision, nil
}

func (s *AnalysisService) loadTemplate(id string) (driven.Template, error) {
	tmpl, err := s.deps.Templates.Load(id)
	if err != nil {
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			err = fmt.Errorf("loading template %s: %w", id, err)
		}
		return nil, domain.NewStageError(domain.StageTemplate, err)
	}
	return tmpl, nil
}
