package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

func TestRetryPolicy_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := fastRetry(3).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errBoom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_InvalidInputIsPermanent(t *testing.T) {
	calls := 0
	err := fastRetry(5).Do(context.Background(), "op", func(context.Context) error {
		calls++
		return fmt.Errorf("%w: bad prompt", domain.ErrInvalidInput)
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_Once(t *testing.T) {
	calls := 0
	p := fastRetry(4).Once()
	err := p.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errBoom
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, p.Attempts)
}

func TestRetryPolicy_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastRetry(5).Do(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return errBoom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, errBoom))
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_CallTimeout(t *testing.T) {
	p := RetryPolicy{Attempts: 2, CallTimeout: 10 * time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, errors.Is(err, domain.ErrCancelled), "a per-call deadline is not a cancellation")
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyFromSettings(t *testing.T) {
	p := RetryPolicyFromSettings(domain.PipelineSettings{
		RetryAttempts:      5,
		RetryBaseMillis:    100,
		CallTimeoutSeconds: 30,
	})

	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, 100*time.Millisecond, p.Base)
	assert.Equal(t, 30*time.Second, p.CallTimeout)
	assert.Equal(t, 5*time.Second, p.Max)
	assert.Equal(t, 3, DefaultRetryPolicy().Attempts)
}
