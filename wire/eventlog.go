package wire

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/types"
)

// EventLogReader reads envelopes from a JSON Lines event log: one JSON
// object per line, each an envelope. A malformed line is skipped with a
// log message and reading continues with the next line.
type EventLogReader struct {
	scanner *bufio.Scanner
	logger  *log.Logger
}

// NewEventLogReader creates a reader over a JSON Lines stream.
func NewEventLogReader(r io.Reader, logger *log.Logger) *EventLogReader {
	scanner := bufio.NewScanner(r)
	// Environment blocks can make a single envelope large.
	scanner.Buffer(make([]byte, 64*1024), MaxPayloadSize)
	return &EventLogReader{scanner: scanner, logger: logger}
}

// Next returns the next valid envelope, or io.EOF when the stream ends.
// Lines that fail to parse are logged and skipped.
func (r *EventLogReader) Next() (*types.Envelope, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		envelope, err := DecodeEnvelope(line)
		if err != nil {
			r.logger.Error("failed to read event", map[string]any{
				"error": err.Error(),
			})
			continue
		}
		return envelope, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// EventLogWriter appends envelopes to a JSON Lines event log.
type EventLogWriter struct {
	encoder *json.Encoder
}

// NewEventLogWriter creates a writer emitting one envelope per line.
func NewEventLogWriter(w io.Writer) *EventLogWriter {
	return &EventLogWriter{encoder: json.NewEncoder(w)}
}

// Write appends one envelope as a single line.
func (w *EventLogWriter) Write(envelope *types.Envelope) error {
	return w.encoder.Encode(envelope)
}
