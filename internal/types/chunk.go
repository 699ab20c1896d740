package types

import "github.com/google/uuid"

// Chunk is one contiguous slice of a source document sized for embedding.
// Offsets are rune offsets into the normalized document text, so slicing the
// normalized text by [StartOffset, EndOffset) recovers Content exactly.
type Chunk struct {
	Index       int    `json:"index"`
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// RetrievedChunk is a transient query result; it is never persisted here.
// ChunkID is the vector store's point id verbatim, kept as a string because
// the store contract does not promise uuid-shaped ids.
type RetrievedChunk struct {
	ChunkID        string    `json:"chunk_id"`
	DocumentID     uuid.UUID `json:"document_id"`
	Content        string    `json:"content"`
	Similarity     float64   `json:"similarity"`
	DocumentTitle  string    `json:"document_title"`
	SourceCategory string    `json:"source_category"`
}
