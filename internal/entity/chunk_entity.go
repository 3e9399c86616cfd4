package entity

import (
	"time"

	"github.com/google/uuid"
)

// Segment kinds produced by the external document converter.
const (
	SegmentTypeText  = "text"
	SegmentTypeTable = "table"
)

// SplitPartTable marks a chunk that is one fragment of a split table.
const SplitPartTable = "table_chunk"

// Chunk is the atomic retrieval granule: a unit of indexed text/table
// content plus structural metadata. Immutable once indexed.
type Chunk struct {
	Id        uuid.UUID
	Content   string
	Embedding []float32

	DocId     int64 // monotonic per ingestion batch
	Source    string
	FileId    uuid.UUID
	Filename  string
	Ref       string // structural pointer into the original document
	Type      string // text | table
	Page      *int
	TenantId  uuid.UUID
	SplitPart string

	CreatedAt time.Time
}

// ScoredChunk wraps a Chunk with a retrieval score (similarity or fused).
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}
