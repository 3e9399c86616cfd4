package events

import "time"

// Event is the contract for everything published on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "FILE_STATUS").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// FileStatusEventType is emitted whenever a file's ingestion status changes.
const FileStatusEventType = "FILE_STATUS"

func NewFileStatusEvent(tenantId, fileId, filename, status, errMsg string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: FileStatusEventType,
		Data: map[string]interface{}{
			"tenant_id":   tenantId,
			"file_id":     fileId,
			"filename":    filename,
			"status":      status,
			"error":       errMsg,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}
