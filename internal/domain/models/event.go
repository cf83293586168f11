package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Content event types, matching the platform's event bit flags.
const (
	EventCreate         = 1 << 0
	EventModify         = 1 << 1
	EventModifyMetadata = 1 << 2
	EventAdd            = 1 << 3
	EventRemove         = 1 << 4
	EventDelete         = 1 << 5
	EventInstall        = 1 << 6
)

// Event is one content mutation reported by the platform's event system.
// Subject carries a snapshot of the mutated object when it still exists; for
// DELETE events only the scalar fields below are available, with Detail holding
// the former handle.
type Event struct {
	EventType   int
	SubjectType int
	SubjectID   uuid.UUID
	Subject     DSpaceObject
	Detail      string
	Identifiers []string
	// MetadataValues carries the metadata of a deleted object, captured before
	// the delete was committed.
	MetadataValues []MetadataValue
}

func (e Event) String() string {
	return fmt.Sprintf("Event(type=%s, subject=%s, id=%s)",
		EventTypeString(e.EventType), TypeString(e.SubjectType), e.SubjectID)
}

// EventTypeString returns the human-readable name of an event type.
func EventTypeString(eventType int) string {
	switch eventType {
	case EventCreate:
		return "CREATE"
	case EventModify:
		return "MODIFY"
	case EventModifyMetadata:
		return "MODIFY_METADATA"
	case EventAdd:
		return "ADD"
	case EventRemove:
		return "REMOVE"
	case EventDelete:
		return "DELETE"
	case EventInstall:
		return "INSTALL"
	default:
		return "UNKNOWN"
	}
}
