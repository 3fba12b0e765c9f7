// Package wire implements the envelope codec: a 4-byte big-endian length
// prefix followed by that many bytes of UTF-8 JSON encoding one envelope.
//
// Length prefixing makes concatenation trivially correct across crash
// boundaries: a partial final frame at EOF is detectable and discardable.
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/chisel-build/chisel/types"
)

const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size (MaxFrameSize - 4 bytes).
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// ErrorKind classifies envelope decoding errors.
type ErrorKind int

const (
	// Truncated indicates the stream ended before the declared length.
	Truncated ErrorKind = iota
	// Malformed indicates the payload is not valid envelope JSON, or the
	// declared length exceeds the frame limit.
	Malformed
	// UnknownVariant indicates the envelope parsed but carries no
	// recognized event kind.
	UnknownVariant
)

// Error represents an envelope decoding error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTruncated reports whether the error is a truncated-frame error.
func IsTruncated(err error) bool {
	var wireErr *Error
	return errors.As(err, &wireErr) && wireErr.Kind == Truncated
}

// EnvelopeReader decodes length-prefixed JSON envelopes from a stream.
type EnvelopeReader struct {
	reader io.Reader
}

// NewEnvelopeReader creates an envelope reader. Wraps the reader with
// bufio.Reader to reduce syscall overhead on unbuffered sources.
func NewEnvelopeReader(r io.Reader) *EnvelopeReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &EnvelopeReader{reader: br}
}

// Read reads a single envelope from the stream.
//
// Errors:
//   - io.EOF: stream ended cleanly before a new frame started
//   - *Error with Kind=Truncated: stream ended inside a frame
//   - *Error with Kind=Malformed: payload is not a valid envelope
//   - *Error with Kind=UnknownVariant: envelope has no known event kind
func (d *EnvelopeReader) Read() (*types.Envelope, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &Error{
			Kind: Truncated,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &Error{
			Kind: Malformed,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, &Error{
			Kind: Truncated,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	return DecodeEnvelope(payload)
}

// DecodeEnvelope decodes a payload as an envelope and validates that it
// carries a known event variant.
func DecodeEnvelope(payload []byte) (*types.Envelope, error) {
	var envelope types.Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &Error{
			Kind: Malformed,
			Msg:  "failed to decode envelope",
			Err:  err,
		}
	}
	if envelope.Event.Started == nil {
		return nil, &Error{
			Kind: UnknownVariant,
			Msg:  "envelope carries no recognized event kind",
		}
	}
	return &envelope, nil
}

// WriteEnvelope encodes the envelope with its length prefix and writes it
// as a single logical write. Returns the number of payload bytes written.
func WriteEnvelope(w io.Writer, envelope *types.Envelope) (int, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return 0, fmt.Errorf("failed to encode envelope: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return 0, fmt.Errorf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(payload)))
	copy(frame[LengthPrefixSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return 0, fmt.Errorf("failed to write envelope: %w", err)
	}
	return len(payload), nil
}
