package watcher

// EventType represents the type of file system event.
type EventType int

const (
	// EventCreated is emitted when a file appears in a watched directory.
	EventCreated EventType = iota
	// EventModified is emitted when a file's content was written.
	EventModified
	// EventRemoved is emitted when a file or directory is deleted.
	EventRemoved
	// EventRenamed is emitted when a file is moved away from its path.
	EventRenamed
	// EventError carries a non-fatal watch error in Err.
	EventError
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventModified:
		return "modified"
	case EventRemoved:
		return "removed"
	case EventRenamed:
		return "renamed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single change notification delivered to the consumer.
type Event struct {
	Type EventType

	// Path is the affected path. For error events it is set when the
	// offending path is known.
	Path string

	// Err is set for EventError only.
	Err error
}

// merge folds a later event for the same path into an earlier one.
// The later event wins, except that a write following a creation is still
// reported as a creation.
func merge(prev, next Event) Event {
	if prev.Type == EventCreated && next.Type == EventModified {
		return prev
	}
	return next
}
