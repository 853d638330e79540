// Package memory provides an exact in-memory vector index.
//
// Every query is scored against every stored vector with cosine similarity.
// Indexes hold one report's chunks, so a linear scan is fast enough and gives
// the stable ordering the retrieval contract needs.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
}

// Index is a brute-force cosine similarity index.
// It is safe for concurrent use; Add is expected only while building.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    []entry
	ids        map[string]struct{}
	closed     bool
}

// New creates an empty index for vectors of the given dimension.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive, got %d", domain.ErrInvalidInput, dimensions)
	}
	return &Index{
		dimensions: dimensions,
		ids:        make(map[string]struct{}),
	}, nil
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(dimensions int) (driven.VectorIndex, error) {
	return New(dimensions)
}

// Dimensions returns the vector size the index accepts.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Add inserts a vector for the given chunk ID. The vector is copied.
func (ix *Index) Add(_ context.Context, chunkID string, embedding []float32) error {
	if len(embedding) != ix.dimensions {
		return fmt.Errorf("%w: vector for chunk %s has %d dimensions, index expects %d",
			domain.ErrInvalidInput, chunkID, len(embedding), ix.dimensions)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return fmt.Errorf("vector index is closed")
	}
	if _, ok := ix.ids[chunkID]; ok {
		return fmt.Errorf("%w: chunk %s already indexed", domain.ErrInvalidInput, chunkID)
	}

	v := make([]float32, len(embedding))
	copy(v, embedding)
	ix.entries = append(ix.entries, entry{chunkID: chunkID, vector: v, norm: norm(v)})
	ix.ids[chunkID] = struct{}{}
	return nil
}

// Search returns the k most similar vectors, highest first.
// Equal scores keep insertion order.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrInvalidInput, len(query), ix.dimensions)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if k <= 0 || len(ix.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qnorm := norm(query)
	hits := make([]driven.VectorHit, len(ix.entries))
	for i, e := range ix.entries {
		hits[i] = driven.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: cosine(query, qnorm, e.vector, e.norm),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Close releases the stored vectors.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = nil
	ix.ids = nil
	ix.closed = true
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
