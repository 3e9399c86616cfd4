package entity

import (
	"time"

	"github.com/google/uuid"
)

// File ingestion statuses.
const (
	FileStatusPending    = "PENDING"
	FileStatusProcessing = "PROCESSING"
	FileStatusCompleted  = "COMPLETED"
	FileStatusFailed     = "FAILED"
)

// FileRecord tracks one ingested document through the pipeline. A failure is
// recorded here with its message and never aborts sibling files.
type FileRecord struct {
	Id         uuid.UUID
	TenantId   uuid.UUID
	Filename   string
	Source     string
	Status     string
	Error      string
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
