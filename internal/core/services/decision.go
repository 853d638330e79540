package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// DecisionService reduces the accumulated answers to a verdict.
type DecisionService struct {
	llm     driven.LLMService
	retry   RetryPolicy
	genOpts driven.GenerateOptions
}

// DecisionOption configures a DecisionService.
type DecisionOption func(*DecisionService)

// WithDecisionRetry sets the retry policy for the verdict call.
// The default is a single attempt.
func WithDecisionRetry(p RetryPolicy) DecisionOption {
	return func(d *DecisionService) {
		d.retry = p
	}
}

// WithDecisionGenerateOptions sets the options passed to the verdict call.
func WithDecisionGenerateOptions(opts driven.GenerateOptions) DecisionOption {
	return func(d *DecisionService) {
		d.genOpts = opts
	}
}

// NewDecisionService creates a decision aggregator.
func NewDecisionService(llm driven.LLMService, opts ...DecisionOption) (*DecisionService, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	d := &DecisionService{
		llm:   llm,
		retry: DefaultRetryPolicy().Once(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Decide renders the decision template with analysisText and returns the
// completion as the verdict. There is no fallback verdict on failure.
func (d *DecisionService) Decide(ctx context.Context, analysisText string, tmpl driven.Template) (domain.DecisionRecord, error) {
	logger.Section("Decide")

	if tmpl == nil {
		return domain.DecisionRecord{}, fmt.Errorf("%w: %w: decision template is required",
			domain.ErrDecisionGeneration, domain.ErrInvalidInput)
	}
	prompt, err := tmpl.Render(map[string]any{
		driven.FieldAnalysisResults: analysisText,
	})
	if err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("%w: render template %s: %w",
			domain.ErrDecisionGeneration, tmpl.ID(), err)
	}
	logger.Debug("Decision prompt: %d bytes of analysis", len(analysisText))

	var verdict string
	err = d.retry.Do(ctx, "generate verdict", func(ctx context.Context) error {
		var err error
		verdict, err = d.llm.Generate(ctx, prompt, d.genOpts)
		return err
	})
	if err != nil {
		return domain.DecisionRecord{}, completionError(domain.ErrDecisionGeneration, err)
	}

	logger.Debug("Verdict: %d bytes", len(verdict))
	return domain.DecisionRecord{AnalysisText: analysisText, Verdict: verdict}, nil
}
