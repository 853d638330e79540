package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

type stubEmbedding struct{ calls int }

func (s *stubEmbedding) Embed(context.Context, string) ([]float32, error) {
	s.calls++
	return []float32{1}, nil
}

func (s *stubEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	return make([][]float32, len(texts)), nil
}

func (s *stubEmbedding) Dimensions() int            { return 1 }
func (s *stubEmbedding) ModelName() string          { return "stub" }
func (s *stubEmbedding) Ping(context.Context) error { return nil }
func (s *stubEmbedding) Close() error               { return nil }

type stubLLM struct{ calls int }

func (s *stubLLM) Generate(context.Context, string, driven.GenerateOptions) (string, error) {
	s.calls++
	return "ok", nil
}

func (s *stubLLM) ModelName() string          { return "stub" }
func (s *stubLLM) Ping(context.Context) error { return nil }
func (s *stubLLM) Close() error               { return nil }

func TestRateLimit_DisabledReturnsSame(t *testing.T) {
	emb := &stubEmbedding{}
	llm := &stubLLM{}

	assert.Same(t, emb, WithEmbeddingRateLimit(emb, 0))
	assert.Same(t, llm, WithLLMRateLimit(llm, -1))
}

func TestRateLimit_Delegates(t *testing.T) {
	emb := &stubEmbedding{}
	limited := WithEmbeddingRateLimit(emb, 100)

	_, err := limited.Embed(context.Background(), "x")
	require.NoError(t, err)
	_, err = limited.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 2, emb.calls)
	assert.Equal(t, "stub", limited.ModelName())
}

func TestRateLimit_CancelledWhileWaiting(t *testing.T) {
	llm := &stubLLM{}
	limited := WithLLMRateLimit(llm, 0.5)

	// The first call consumes the single burst token.
	_, err := limited.Generate(context.Background(), "p", driven.GenerateOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Generate(ctx, "p", driven.GenerateOptions{})

	assert.Error(t, err)
	assert.Equal(t, 1, llm.calls)
}
