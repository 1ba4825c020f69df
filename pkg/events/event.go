package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "DOCUMENT_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Document lifecycle event codes published on the event bus.
const (
	TypeDocumentIngested = "DOCUMENT_INGESTED"
	TypeDocumentIndexed  = "DOCUMENT_INDEXED"
	TypeDocumentFailed   = "DOCUMENT_INDEX_FAILED"
	TypeDocumentDeleted  = "DOCUMENT_DELETED"
	TypeMemoryReset      = "MEMORY_RESET"
)

// BaseEvent is the plain implementation used across services.
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
