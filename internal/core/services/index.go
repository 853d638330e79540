package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// DefaultEmbedBatchSize is the number of chunks sent per embedding request.
const DefaultEmbedBatchSize = 32

// Retriever answers similarity queries over a report.
type Retriever interface {
	// Query returns at most k chunks ordered by descending similarity.
	// An empty index yields an empty result, never an error.
	Query(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error)
}

// Ensure RetrievalIndex implements the interface.
var _ Retriever = (*RetrievalIndex)(nil)

// IndexBuilder embeds chunks and loads them into a fresh vector index.
type IndexBuilder struct {
	embedder   driven.EmbeddingService
	newIndex   driven.VectorIndexFactory
	batchSize  int
	buildRetry RetryPolicy
	queryRetry RetryPolicy
}

// IndexOption configures an IndexBuilder.
type IndexOption func(*IndexBuilder)

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexOption {
	return func(b *IndexBuilder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithIndexRetry sets the retry policy for query embeddings.
// Index builds make a single attempt per batch under the same deadline.
func WithIndexRetry(p RetryPolicy) IndexOption {
	return func(b *IndexBuilder) {
		b.queryRetry = p
		b.buildRetry = p.Once()
	}
}

// NewIndexBuilder creates a builder over the given embedding service.
func NewIndexBuilder(
	embedder driven.EmbeddingService, newIndex driven.VectorIndexFactory, opts ...IndexOption,
) (*IndexBuilder, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if newIndex == nil {
		return nil, fmt.Errorf("%w: vector index factory is required", domain.ErrInvalidInput)
	}

	policy := DefaultRetryPolicy()
	b := &IndexBuilder{
		embedder:   embedder,
		newIndex:   newIndex,
		batchSize:  DefaultEmbedBatchSize,
		buildRetry: policy.Once(),
		queryRetry: policy,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build embeds every chunk and returns a populated index.
// The build is all-or-nothing: on any failure no index is returned and
// any partially filled vector store is closed.
func (b *IndexBuilder) Build(ctx context.Context, chunks []domain.Chunk) (*RetrievalIndex, error) {
	logger.Section("Build Index")
	logger.Debug("Embedding %d chunks with %s (batch size %d)", len(chunks), b.embedder.ModelName(), b.batchSize)

	ix := &RetrievalIndex{
		embedder: b.embedder,
		chunks:   make(map[string]domain.Chunk, len(chunks)),
		retry:    b.queryRetry,
	}
	if len(chunks) == 0 {
		return ix, nil
	}

	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Content
		}

		var batch [][]float32
		err := b.buildRetry.Do(ctx, "embed batch", func(ctx context.Context) error {
			var err error
			batch, err = b.embedder.EmbedBatch(ctx, texts)
			return err
		})
		if err != nil {
			return nil, embeddingError(fmt.Sprintf("embed chunks %d-%d", start, end-1), err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: requested %d embeddings, received %d",
				domain.ErrEmbeddingService, len(texts), len(batch))
		}
		vectors = append(vectors, batch...)
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if err := validateVector(v, dims); err != nil {
			return nil, fmt.Errorf("%w: chunk %d: %w", domain.ErrEmbeddingService, chunks[i].Position, err)
		}
	}

	store, err := b.newIndex(dims)
	if err != nil {
		return nil, fmt.Errorf("create vector index: %w", err)
	}
	for i, c := range chunks {
		if err := store.Add(ctx, c.ID, vectors[i]); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("index chunk %d: %w", c.Position, err)
		}
		ix.chunks[c.ID] = c
	}

	ix.vectors = store
	ix.dims = dims
	logger.Debug("Indexed %d chunks, %d dimensions", store.Len(), dims)
	return ix, nil
}

// RetrievalIndex is a read-only similarity index over one report.
// It is safe to share between concurrent queries.
type RetrievalIndex struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	chunks   map[string]domain.Chunk
	dims     int
	retry    RetryPolicy
}

// Len returns the number of indexed chunks.
func (ix *RetrievalIndex) Len() int {
	if ix.vectors == nil {
		return 0
	}
	return ix.vectors.Len()
}

// Dimensions returns the embedding size, or 0 for an empty index.
func (ix *RetrievalIndex) Dimensions() int {
	return ix.dims
}

// Query embeds question and returns the top k chunks.
// Query embeddings are retried under the index's retry policy.
func (ix *RetrievalIndex) Query(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	if ix.Len() == 0 || k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	var q []float32
	err := ix.retry.Do(ctx, "embed query", func(ctx context.Context) error {
		var err error
		q, err = ix.embedder.Embed(ctx, question)
		return err
	})
	if err != nil {
		return nil, embeddingError("embed query", err)
	}
	if err := validateVector(q, ix.dims); err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrEmbeddingService, err)
	}

	hits, err := ix.vectors.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		c, ok := ix.chunks[h.ChunkID]
		if !ok {
			continue
		}
		results = append(results, domain.RetrievedChunk{Chunk: c, Score: h.Similarity})
	}
	return results, nil
}

// Close releases the underlying vector store.
func (ix *RetrievalIndex) Close() error {
	if ix.vectors == nil {
		return nil
	}
	return ix.vectors.Close()
}

func validateVector(v []float32, dims int) error {
	if len(v) == 0 {
		return errors.New("empty vector")
	}
	if len(v) != dims {
		return fmt.Errorf("vector has %d dimensions, expected %d", len(v), dims)
	}
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return errors.New("vector contains non-finite values")
		}
	}
	return nil
}

// embeddingError tags a failed embedding call, leaving cancellation distinct.
func embeddingError(op string, err error) error {
	if errors.Is(err, domain.ErrCancelled) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingService, op, err)
}
