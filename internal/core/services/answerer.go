package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// contextSeparator joins retrieved chunks in the answer prompt.
const contextSeparator = "\n\n"

// Answerer answers a single question by retrieval and one completion.
type Answerer struct {
	llm     driven.LLMService
	topK    int
	retry   RetryPolicy
	genOpts driven.GenerateOptions
}

// AnswererOption configures an Answerer.
type AnswererOption func(*Answerer)

// WithTopK sets the number of chunks retrieved per question.
func WithTopK(k int) AnswererOption {
	return func(a *Answerer) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithAnswerRetry sets the retry policy for completion calls.
func WithAnswerRetry(p RetryPolicy) AnswererOption {
	return func(a *Answerer) {
		a.retry = p
	}
}

// WithGenerateOptions sets the options passed to every completion call.
func WithGenerateOptions(opts driven.GenerateOptions) AnswererOption {
	return func(a *Answerer) {
		a.genOpts = opts
	}
}

// NewAnswerer creates an answerer over the given completion service.
func NewAnswerer(llm driven.LLMService, opts ...AnswererOption) (*Answerer, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	a := &Answerer{
		llm:   llm,
		topK:  DefaultTopK,
		retry: DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// TopK returns the number of chunks retrieved per question.
func (a *Answerer) TopK() int { return a.topK }

// Retrieve finds context for question. An empty result is logged as
// domain.ErrRetrievalEmpty and returned without error.
func (a *Answerer) Retrieve(ctx context.Context, retriever Retriever, question string) ([]domain.RetrievedChunk, error) {
	chunks, err := retriever.Query(ctx, question, a.topK)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		logger.Warn("%v for %q, answering with empty context", domain.ErrRetrievalEmpty, question)
		return []domain.RetrievedChunk{}, nil
	}
	logger.Debug("Retrieved %d chunks (best score %.3f)", len(chunks), chunks[0].Score)
	return chunks, nil
}

// Generate renders the answer template and returns the completion verbatim.
func (a *Answerer) Generate(
	ctx context.Context, question string, chunks []domain.RetrievedChunk, tmpl driven.Template,
) (string, error) {
	prompt, err := RenderAnswerPrompt(tmpl, question, chunks)
	if err != nil {
		return "", err
	}

	var text string
	err = a.retry.Do(ctx, "generate answer", func(ctx context.Context) error {
		var err error
		text, err = a.llm.Generate(ctx, prompt, a.genOpts)
		return err
	})
	if err != nil {
		return "", completionError(domain.ErrCompletionService, err)
	}
	return text, nil
}

// Answer retrieves context for question and generates an answer.
func (a *Answerer) Answer(ctx context.Context, question string, retriever Retriever, tmpl driven.Template) (string, error) {
	chunks, err := a.Retrieve(ctx, retriever, question)
	if err != nil {
		return "", err
	}
	return a.Generate(ctx, question, chunks, tmpl)
}

// RenderAnswerPrompt fills the answer template with the question and the
// retrieved chunks joined by a blank line.
func RenderAnswerPrompt(tmpl driven.Template, question string, chunks []domain.RetrievedChunk) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("%w: answer template is required", domain.ErrInvalidInput)
	}
	prompt, err := tmpl.Render(map[string]any{
		driven.FieldQuestion: question,
		driven.FieldContext:  strings.Join(domain.ChunkContents(chunks), contextSeparator),
	})
	if err != nil {
		return "", fmt.Errorf("%w: render template %s: %w", domain.ErrInvalidInput, tmpl.ID(), err)
	}
	return prompt, nil
}

// completionError tags a failed completion, leaving cancellation distinct.
func completionError(kind, err error) error {
	if errors.Is(err, domain.ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
