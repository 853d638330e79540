package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// RetryPolicy bounds retries and deadlines for external calls.
type RetryPolicy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Base is the backoff before the second attempt; it doubles after each failure.
	Base time.Duration

	// Max caps a single backoff interval.
	Max time.Duration

	// CallTimeout bounds each attempt. Zero means no per-call deadline.
	CallTimeout time.Duration
}

// DefaultRetryPolicy returns three attempts with 500ms exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicyFromSettings(domain.DefaultPipelineSettings())
}

// RetryPolicyFromSettings builds a policy from pipeline settings.
func RetryPolicyFromSettings(s domain.PipelineSettings) RetryPolicy {
	return RetryPolicy{
		Attempts:    s.RetryAttempts,
		Base:        s.RetryBase(),
		Max:         5 * time.Second,
		CallTimeout: s.CallTimeout(),
	}
}

// Once returns the policy reduced to a single attempt, keeping the deadline.
func (p RetryPolicy) Once() RetryPolicy {
	p.Attempts = 1
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.Base
	if base <= 0 {
		base = time.Nanosecond
	}
	b := retry.NewExponential(base)
	if p.Max > 0 {
		b = retry.WithCappedDuration(p.Max, b)
	}
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return retry.WithMaxRetries(uint64(attempts-1), b) // #nosec G115 -- attempts is at least 1
}

// Do runs fn until it succeeds, returns a permanent error, or the attempts
// are exhausted. Errors wrapping domain.ErrInvalidInput are not retried.
// If ctx ends, the result wraps domain.ErrCancelled instead of fn's error.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		callErr := p.call(ctx, fn)
		if callErr == nil {
			return nil
		}
		if ctx.Err() != nil || errors.Is(callErr, domain.ErrInvalidInput) {
			return callErr
		}
		if attempt < p.Attempts {
			logger.Debug("%s attempt %d/%d failed, retrying: %v", op, attempt, p.Attempts, callErr)
		}
		return retry.RetryableError(callErr)
	})
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrCancelled, op, ctx.Err())
	}
	return err
}

func (p RetryPolicy) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.CallTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()
	return fn(callCtx)
}
