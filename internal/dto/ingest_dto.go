package dto

import (
	"time"

	"github.com/google/uuid"
)

// SegmentPayload is one pre-converted document segment, as produced by the
// external conversion pipeline.
type SegmentPayload struct {
	Content string `json:"content" validate:"required"`
	Type    string `json:"type" validate:"required,oneof=text table"`
	Ref     string `json:"ref"`
	Page    *int   `json:"page"`
}

type IngestFilePayload struct {
	Filename string           `json:"filename" validate:"required"`
	Source   string           `json:"source"`
	Segments []SegmentPayload `json:"segments" validate:"required,min=1,dive"`
}

type IngestRequest struct {
	Files []IngestFilePayload `json:"files" validate:"required,min=1,dive"`
}

type IngestAcceptedResponse struct {
	BatchId uuid.UUID            `json:"batch_id"`
	Files   []FileStatusResponse `json:"files"`
}

type FileStatusResponse struct {
	Id         uuid.UUID  `json:"id"`
	Filename   string     `json:"filename"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	ChunkCount int        `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// IngestBatchMessage is the payload published to the ingestion queue; the
// consumer picks it up and runs chunking plus indexing off the request path.
type IngestBatchMessage struct {
	BatchId  uuid.UUID          `json:"batch_id"`
	TenantId uuid.UUID          `json:"tenant_id"`
	Files    []IngestFileDetail `json:"files"`
}

type IngestFileDetail struct {
	FileId   uuid.UUID        `json:"file_id"`
	Filename string           `json:"filename"`
	Source   string           `json:"source"`
	Segments []SegmentPayload `json:"segments"`
}

// FileStatusEvent is published on the event bus whenever a file's ingestion
// status changes; the websocket hub forwards it to the owning tenant.
type FileStatusEvent struct {
	TenantId   uuid.UUID `json:"tenant_id"`
	FileId     uuid.UUID `json:"file_id"`
	Filename   string    `json:"filename"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ChunkCount int       `json:"chunk_count"`
}

type ChunkRecordResponse struct {
	Id        uuid.UUID `json:"id"`
	DocId     int64     `json:"doc_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	SplitPart string    `json:"split_part,omitempty"`
	Filename  string    `json:"filename"`
	Ref       string    `json:"ref,omitempty"`
	Page      *int      `json:"page,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
