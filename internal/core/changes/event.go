package changes

import "Tutter/internal/core/docstore"

// EventType is the kind of write that produced an event
type EventType string

const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event describes a committed document write.
// Fields holds the full document after the write; it is empty for deletes.
type Event struct {
	Fields     docstore.Fields `json:"fields,omitempty"`
	Type       EventType       `json:"type"`
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
}

// Document returns the event's document
func (e Event) Document() docstore.Document {
	return docstore.Document{ID: e.ID, Fields: e.Fields.Clone()}
}
