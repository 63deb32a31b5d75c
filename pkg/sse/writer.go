package sse

import (
	"fmt"
	"io"
)

/*
WriteEvent frames one event onto the wire: an optional `event:` line, one
`data:` line per data line, and the terminating blank line. The caller
flushes after each event to keep latency low.
*/
func WriteEvent(w io.Writer, event *Event) error {
	if event.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", event.ID); err != nil {
			return err
		}
	}

	if event.Name != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event.Name); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}

	return nil
}

// WriteData frames a plain data-only event.
func WriteData(w io.Writer, data []byte) error {
	return WriteEvent(w, &Event{Data: data})
}

// WriteError frames a stream-terminating error event.
func WriteError(w io.Writer, data []byte) error {
	return WriteEvent(w, &Event{Name: ErrorEventName, Data: data})
}
