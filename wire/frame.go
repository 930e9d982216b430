package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// LengthPrefixSize is the width, in bytes, of the frame length prefix.
const LengthPrefixSize = 4

// MaxMessageSize bounds a single frame's payload, guarding a peer from
// forcing an unbounded allocation with a bogus length prefix.
const MaxMessageSize = 1 << 20 // 1 MiB

var (
	// ErrInvalidLengthPrefix indicates a zero-length frame was announced.
	ErrInvalidLengthPrefix = errors.New("wire: invalid length prefix")

	// ErrMessageTooLong indicates a frame's announced length exceeds
	// MaxMessageSize.
	ErrMessageTooLong = errors.New("wire: message too long")
)

// StreamWriter wraps an io.Writer to add length-prefixed framing
// (spec.md §4.4's chosen resolution: an explicit big-endian uint32
// prefix, rather than the original's raw platform size_t).
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter returns a StreamWriter writing frames to w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteMessage encodes and writes m as one length-prefixed frame.
func (sw *StreamWriter) WriteMessage(m *Message) error {
	payload, err := m.Encode()
	if err != nil {
		return err
	}

	var lenBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := sw.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = sw.w.Write(payload)
	return err
}

// StreamReader wraps an io.Reader to read length-prefixed frames.
type StreamReader struct {
	r io.Reader
}

// NewStreamReader returns a StreamReader reading frames from r.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadMessage reads one length-prefixed frame and decodes it.
//
// A read that fails because the underlying stream ended cleanly on a
// frame boundary returns io.EOF unwrapped, so callers can distinguish a
// graceful disconnect from a mid-frame error with errors.Is.
func (sr *StreamReader) ReadMessage() (*Message, error) {
	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(sr.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return nil, ErrInvalidLengthPrefix
	}
	if frameLen > MaxMessageSize {
		return nil, ErrMessageTooLong
	}

	payload := make([]byte, frameLen)
	if _, err := io.ReadFull(sr.r, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return Decode(payload)
}
