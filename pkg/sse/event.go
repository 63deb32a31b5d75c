package sse

// ErrorEventName marks a stream-terminating error event emitted after the
// response headers were already flushed.
const ErrorEventName = "error"

// Event represents a Server-Sent Event.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// IsError reports whether the event is a stream-terminating error event.
func (event *Event) IsError() bool {
	return event.Name == ErrorEventName
}
