package sse

import (
	"bufio"
	"io"
	"strings"
)

/*
Reader parses a Server-Sent Events stream. It tolerates arbitrary TCP
chunking, bare \n as well as \r\n line endings, multi-line data fields and
comment lines, per the SSE specification.
*/
type Reader struct {
	scanner *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewReader(r)}
}

/*
Next returns the next complete event, or io.EOF when the stream ends. A
stream ending mid-event discards the partial event.
*/
func (reader *Reader) Next() (*Event, error) {
	event := &Event{}
	var data strings.Builder
	inEvent := false

	for {
		line, err := reader.scanner.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimRight(line, "\r\n")

		// A blank line terminates the event.
		if line == "" {
			if inEvent {
				event.Data = []byte(data.String())
				return event, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		inEvent = true

		switch {
		case strings.HasPrefix(line, "id:"):
			event.ID = strings.TrimPrefix(strings.TrimPrefix(line, "id:"), " ")
		case strings.HasPrefix(line, "event:"):
			event.Name = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteString("\n")
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}
