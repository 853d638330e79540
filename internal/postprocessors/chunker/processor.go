// Package chunker provides a boundary-preferring overlapping text chunker.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// separators are tried in order when looking for a place to end a chunk.
// The separator stays at the end of the chunk it closes.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Processor splits report text into overlapping chunks.
//
// Sizes are counted in characters (runes). Consecutive chunks share exactly
// overlap characters, so dropping the first overlap characters of every
// chunk after the first and concatenating reconstructs the document.
type Processor struct {
	chunkSize int
	overlap   int
	newID     func() string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithIDFunc sets the chunk ID generator. Defaults to random UUIDs.
func WithIDFunc(fn func() string) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		newID:     func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, p.chunkSize)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrInvalidInput, p.overlap)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d",
			domain.ErrInvalidInput, p.overlap, p.chunkSize)
	}

	return p, nil
}

// FromSettings creates a processor from pipeline settings.
func FromSettings(s domain.PipelineSettings) (*Processor, error) {
	return New(WithChunkSize(s.ChunkSize), WithOverlap(s.ChunkOverlap))
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Split divides document into chunks of at most chunkSize characters.
//
// A document with no non-whitespace text returns ErrEmptyDocument.
// Each chunk ends at the last paragraph break, line break, sentence end or
// space in its window, in that order of preference, falling back to a hard
// cut. A boundary is only used if it falls in the second half of the window
// and past the overlap, so every chunk after the first adds new text.
func (p *Processor) Split(document string) ([]domain.Chunk, error) {
	if strings.TrimSpace(document) == "" {
		return nil, domain.ErrEmptyDocument
	}

	// offsets[i] is the byte offset of rune i; offsets[n] is len(document).
	offsets := make([]int, 0, len(document)+1)
	for i := range document {
		offsets = append(offsets, i)
	}
	n := len(offsets)
	offsets = append(offsets, len(document))

	step := p.chunkSize - p.overlap
	chunks := make([]domain.Chunk, 0, n/step+1)

	start := 0
	for {
		end := start + p.chunkSize
		if end >= n {
			end = n
		} else {
			end = p.boundary(document, offsets, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:       p.newID(),
			Content:  document[offsets[start]:offsets[end]],
			Position: len(chunks),
			Offset:   offsets[start],
		})

		if end == n {
			break
		}
		start = end - p.overlap
	}

	return chunks, nil
}

// boundary returns the rune index at which the window [start, limit) should end.
func (p *Processor) boundary(document string, offsets []int, start, limit int) int {
	minLen := max(p.overlap+1, p.chunkSize/2)
	window := document[offsets[start]:offsets[limit]]

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := idx + len(sep)
		end := start + utf8.RuneCountInString(window[:cut])
		if end-start >= minLen {
			return end
		}
	}
	return limit
}
