package driven

import "github.com/custodia-labs/auditrag/internal/core/domain"

// Chunker splits report text into overlapping chunks.
type Chunker interface {
	// Split returns chunks covering the whole document in order.
	// Returns domain.ErrEmptyDocument if document is empty.
	Split(document string) ([]domain.Chunk, error)
}
