package driven

import "context"

// VectorIndex provides similarity search over stored vectors.
// An index is built for one report and is read-only once populated.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	// All vectors in one index must share a dimension.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector, ordered by
	// descending similarity with ties in insertion order.
	// Returns at most min(k, Len()) hits and never fails on an empty index.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (-1 to 1).
	Similarity float64
}

// VectorIndexFactory creates an empty index for a given dimension.
type VectorIndexFactory func(dimensions int) (VectorIndex, error)
