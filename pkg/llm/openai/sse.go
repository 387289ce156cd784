package openai

import (
	"bufio"
	"bytes"
	"io"
)

// maxEventSize bounds a single SSE line.
const maxEventSize = 1024 * 1024

// sseReader parses Server-Sent Events from a response body.
type sseReader struct {
	scanner *bufio.Scanner
}

func newSSEReader(r io.Reader) *sseReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &sseReader{scanner: scanner}
}

// ReadEvent returns the joined data lines of the next event. It returns
// io.EOF when the stream ends with no pending data.
func (s *sseReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for s.scanner.Scan() {
		line := bytes.TrimRight(s.scanner.Bytes(), "\r")

		// Empty line terminates the event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			data := bytes.TrimPrefix(line[5:], []byte(" "))
			// Scanner reuses its buffer
			dataLines = append(dataLines, append([]byte(nil), data...))
		}
		// id:, event:, retry: and ":" comments are not used by the completions API
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	if len(dataLines) > 0 {
		return bytes.Join(dataLines, []byte("\n")), nil
	}
	return nil, io.EOF
}
