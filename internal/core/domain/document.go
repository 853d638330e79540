package domain

import (
	"time"
	"unicode/utf8"
)

// Report is a loaded document awaiting analysis.
// It is the canonical representation after decoding.
type Report struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full decoded text of the report.
	Content string

	// LoadedAt is when the report was read from its source.
	LoadedAt time.Time
}

// IsEmpty returns true if the report has no content to chunk.
func (r Report) IsEmpty() bool {
	return r.Content == ""
}

// Chunk is a bounded contiguous slice of report text used as a retrieval unit.
// Chunks are immutable once created and owned by the retrieval index.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the report.
	Position int

	// Offset is the byte offset of Content within the report text.
	Offset int
}

// Length returns the chunk length in characters.
func (c Chunk) Length() int {
	return utf8.RuneCountInString(c.Content)
}

// End returns the byte offset just past the chunk in the report text.
func (c Chunk) End() int {
	return c.Offset + len(c.Content)
}

// RetrievedChunk is a chunk returned by a similarity query.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the similarity between the query and the chunk.
	Score float64
}

// ChunkContents returns the text of each retrieved chunk in order.
func ChunkContents(chunks []RetrievedChunk) []string {
	out := make([]string, len(chunks))
	for i := range chunks {
		out[i] = chunks[i].Chunk.Content
	}
	return out
}
