// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Google AI (embedding-001)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// The result has one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size, or 0 if not yet known.
	// Adapters that learn the size from the first response report it afterwards.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
