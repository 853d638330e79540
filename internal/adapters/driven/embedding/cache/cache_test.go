package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records every text it is asked to embed.
type countingEmbedder struct {
	seen   []string
	err    error
	closed bool
}

func (e *countingEmbedder) vector(text string) []float32 {
	return []float32{float32(len(text)), 1}
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.seen = append(e.seen, text)
	return e.vector(text), nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		e.seen = append(e.seen, t)
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *countingEmbedder) Dimensions() int              { return 2 }
func (e *countingEmbedder) ModelName() string            { return "counting" }
func (e *countingEmbedder) Ping(_ context.Context) error { return nil }
func (e *countingEmbedder) Close() error {
	e.closed = true
	return nil
}

func TestEmbed_CachesByText(t *testing.T) {
	next := &countingEmbedder{}
	svc, err := New(next, 8)
	require.NoError(t, err)

	first, err := svc.Embed(context.Background(), "budget")
	require.NoError(t, err)
	second, err := svc.Embed(context.Background(), "budget")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"budget"}, next.seen)
}

func TestEmbed_ReturnsCopies(t *testing.T) {
	svc, err := New(&countingEmbedder{}, 8)
	require.NoError(t, err)

	v, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)
	v[0] = 99

	again, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, float32(1), again[0])
}

func TestEmbedBatch_OnlyMissing(t *testing.T) {
	next := &countingEmbedder{}
	svc, err := New(next, 8)
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "a")
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "bb", "ccc"})
	require.NoError(t, err)

	require.Len(t, vectors, 4)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
	assert.Equal(t, float32(2), vectors[2][0])
	assert.Equal(t, float32(3), vectors[3][0])
	assert.Equal(t, []string{"a", "bb", "ccc"}, next.seen)
	assert.Equal(t, 3, svc.Len())
}

func TestEmbedBatch_Error(t *testing.T) {
	boom := errors.New("down")
	svc, err := New(&countingEmbedder{err: boom}, 8)
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, svc.Len())
}

func TestEviction(t *testing.T) {
	next := &countingEmbedder{}
	svc, err := New(next, 1)
	require.NoError(t, err)

	_, _ = svc.Embed(context.Background(), "a")
	_, _ = svc.Embed(context.Background(), "b")
	_, _ = svc.Embed(context.Background(), "a")

	assert.Equal(t, []string{"a", "b", "a"}, next.seen)
}

func TestDelegation(t *testing.T) {
	next := &countingEmbedder{}
	svc, err := New(next, 4)
	require.NoError(t, err)

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "counting", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	require.NoError(t, svc.Close())
	assert.True(t, next.closed)
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(&countingEmbedder{}, 0)
	assert.Error(t, err)
}
