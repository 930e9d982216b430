// Package wire implements the SPEKE session's on-wire message format:
// length-prefixed framing and the three tagged message variants of
// spec.md §4.4 (InitData, KeyConfirmation, SignedData).
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrFramingError indicates a message could not be decoded, or decoded to
// a payload with zero or more than one variant set.
var ErrFramingError = errors.New("wire: framing error")

// Tag identifies which of the three message variants a frame carries.
type Tag uint8

const (
	tagInitData        Tag = 1
	tagKeyConfirmation Tag = 2
	tagSignedData      Tag = 3
)

// InitData carries the sender's id and public key (spec.md §4.4).
type InitData struct {
	ID        string
	PublicKey []byte
}

// KeyConfirmation carries key confirmation data (spec.md §4.4).
type KeyConfirmation struct {
	Data []byte
}

// SignedData carries an HMAC-authenticated application payload
// (spec.md §4.4).
type SignedData struct {
	HMACSignature []byte
	Data          []byte
}

// Message is a tagged union with exactly one of its three fields set. It
// is the unit of exchange the session state machine sends and receives.
type Message struct {
	InitData        *InitData
	KeyConfirmation *KeyConfirmation
	SignedData      *SignedData
}

// NewInitData wraps an InitData variant in a Message.
func NewInitData(id string, publicKey []byte) *Message {
	return &Message{InitData: &InitData{ID: id, PublicKey: publicKey}}
}

// NewKeyConfirmation wraps a KeyConfirmation variant in a Message.
func NewKeyConfirmation(data []byte) *Message {
	return &Message{KeyConfirmation: &KeyConfirmation{Data: data}}
}

// NewSignedData wraps a SignedData variant in a Message.
func NewSignedData(hmacSignature, data []byte) *Message {
	return &Message{SignedData: &SignedData{HMACSignature: hmacSignature, Data: data}}
}

// Validate reports ErrFramingError if zero or more than one variant is set.
func (m *Message) Validate() error {
	n := 0
	if m.InitData != nil {
		n++
	}
	if m.KeyConfirmation != nil {
		n++
	}
	if m.SignedData != nil {
		n++
	}
	if n != 1 {
		return ErrFramingError
	}
	return nil
}

// Encode serializes m to its wire representation: a one-byte tag followed
// by the variant's fields, each field being a big-endian uint32 length
// prefix followed by that many bytes.
func (m *Message) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	switch {
	case m.InitData != nil:
		return encodeTagged(tagInitData, []byte(m.InitData.ID), m.InitData.PublicKey), nil
	case m.KeyConfirmation != nil:
		return encodeTagged(tagKeyConfirmation, m.KeyConfirmation.Data), nil
	default:
		return encodeTagged(tagSignedData, m.SignedData.HMACSignature, m.SignedData.Data), nil
	}
}

// Decode parses a Message from its wire representation.
func Decode(b []byte) (*Message, error) {
	if len(b) < 1 {
		return nil, ErrFramingError
	}
	tag := Tag(b[0])
	rest := b[1:]

	switch tag {
	case tagInitData:
		fields, err := decodeFields(rest, 2)
		if err != nil {
			return nil, err
		}
		return &Message{InitData: &InitData{ID: string(fields[0]), PublicKey: fields[1]}}, nil
	case tagKeyConfirmation:
		fields, err := decodeFields(rest, 1)
		if err != nil {
			return nil, err
		}
		return &Message{KeyConfirmation: &KeyConfirmation{Data: fields[0]}}, nil
	case tagSignedData:
		fields, err := decodeFields(rest, 2)
		if err != nil {
			return nil, err
		}
		return &Message{SignedData: &SignedData{HMACSignature: fields[0], Data: fields[1]}}, nil
	default:
		return nil, ErrFramingError
	}
}

func encodeTagged(tag Tag, fields ...[]byte) []byte {
	size := 1
	for _, f := range fields {
		size += 4 + len(f)
	}
	buf := make([]byte, size)
	buf[0] = byte(tag)
	offset := 1
	for _, f := range fields {
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(f)))
		offset += 4
		offset += copy(buf[offset:], f)
	}
	return buf
}

func decodeFields(b []byte, n int) ([][]byte, error) {
	fields := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if len(b) < 4 {
			return nil, ErrFramingError
		}
		l := binary.BigEndian.Uint32(b)
		b = b[4:]
		if uint64(l) > uint64(len(b)) {
			return nil, ErrFramingError
		}
		fields = append(fields, b[:l])
		b = b[l:]
	}
	if len(b) != 0 {
		return nil, ErrFramingError
	}
	return fields, nil
}
