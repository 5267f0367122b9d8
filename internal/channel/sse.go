package channel

import (
	"bufio"
	"io"
	"strings"
)

const maxEventLine = 16 << 20

// sseEvent is one dispatched server-sent event
type sseEvent struct {
	Name string
	Data string
	ID   string
}

// sseReader decodes a text/event-stream body
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventLine)
	return &sseReader{scanner: scanner}
}

// Next returns the next dispatched event, or io.EOF when the stream ends.
// A trailing event without its blank line terminator is discarded.
func (s *sseReader) Next() (sseEvent, error) {
	var (
		ev      sseEvent
		data    strings.Builder
		hasData bool
	)

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if !hasData {
				ev = sseEvent{}
				continue
			}
			ev.Data = strings.TrimSuffix(data.String(), "\n")
			if ev.Name == "" {
				ev.Name = "message"
			}
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue // comment / keep-alive
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			ev.Name = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "id":
			ev.ID = value
		}
	}

	if err := s.scanner.Err(); err != nil {
		return sseEvent{}, err
	}
	return sseEvent{}, io.EOF
}
