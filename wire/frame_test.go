package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/go-test/deep"
)

func TestStreamRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)
	r := NewStreamReader(&buf)

	messages := []*Message{
		NewInitData("alice:0", []byte{1, 2, 3}),
		NewKeyConfirmation([]byte{4, 5, 6}),
		NewSignedData([]byte{7, 8}, []byte("payload")),
	}

	for _, m := range messages {
		if err := w.WriteMessage(m); err != nil {
			t.Fatalf("WriteMessage: %v", err)
		}
	}

	for i, want := range messages {
		got, err := r.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage %d: %v", i, err)
		}
		if diff := deep.Equal(want, got); diff != nil {
			t.Errorf("message %d mismatch: %v", i, diff)
		}
	}

	if _, err := r.ReadMessage(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after all frames consumed, got %v", err)
	}
}

func TestStreamReaderRejectsZeroLengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 0)
	buf.Write(lenBuf[:])

	r := NewStreamReader(&buf)
	if _, err := r.ReadMessage(); err != ErrInvalidLengthPrefix {
		t.Fatalf("got %v, want ErrInvalidLengthPrefix", err)
	}
}

func TestStreamReaderRejectsOversizedPrefix(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], MaxMessageSize+1)
	buf.Write(lenBuf[:])

	r := NewStreamReader(&buf)
	if _, err := r.ReadMessage(); err != ErrMessageTooLong {
		t.Fatalf("got %v, want ErrMessageTooLong", err)
	}
}

func TestStreamReaderReportsUnexpectedEOF(t *testing.T) {
	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], 10)
	buf.Write(lenBuf[:])
	buf.Write([]byte{1, 2, 3}) // fewer than announced

	r := NewStreamReader(&buf)
	if _, err := r.ReadMessage(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}
