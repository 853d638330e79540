package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure the limited services implement the interfaces.
var (
	_ driven.EmbeddingService = (*limitedEmbedding)(nil)
	_ driven.LLMService       = (*limitedLLM)(nil)
)

// newLimiter returns a token bucket for rps requests per second, or nil
// when rps is not positive. The burst is one second's worth of requests.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// limitedEmbedding throttles provider requests. Batches count as one request.
type limitedEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// WithEmbeddingRateLimit throttles svc to rps requests per second.
// Returns svc unchanged when rps is not positive.
func WithEmbeddingRateLimit(svc driven.EmbeddingService, rps float64) driven.EmbeddingService {
	limiter := newLimiter(rps)
	if limiter == nil {
		return svc
	}
	return &limitedEmbedding{EmbeddingService: svc, limiter: limiter}
}

func (l *limitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := wait(ctx, l.limiter); err != nil {
		return nil, err
	}
	return l.EmbeddingService.Embed(ctx, text)
}

func (l *limitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := wait(ctx, l.limiter); err != nil {
		return nil, err
	}
	return l.EmbeddingService.EmbedBatch(ctx, texts)
}

// limitedLLM throttles completion requests.
type limitedLLM struct {
	driven.LLMService
	limiter *rate.Limiter
}

// WithLLMRateLimit throttles svc to rps requests per second.
// Returns svc unchanged when rps is not positive.
func WithLLMRateLimit(svc driven.LLMService, rps float64) driven.LLMService {
	limiter := newLimiter(rps)
	if limiter == nil {
		return svc
	}
	return &limitedLLM{LLMService: svc, limiter: limiter}
}

func (l *limitedLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := wait(ctx, l.limiter); err != nil {
		return "", err
	}
	return l.LLMService.Generate(ctx, prompt, opts)
}
