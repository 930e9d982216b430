package wire

import (
	"testing"

	"github.com/go-test/deep"
)

func TestInitDataRoundTrip(t *testing.T) {
	m := NewInitData("alice:0", []byte{0x01, 0x02, 0x03})
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := deep.Equal(m, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestKeyConfirmationRoundTrip(t *testing.T) {
	m := NewKeyConfirmation([]byte{0xAA, 0xBB})
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := deep.Equal(m, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestSignedDataRoundTrip(t *testing.T) {
	m := NewSignedData([]byte{0x01, 0x02}, []byte("hello"))
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := deep.Equal(m, got); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestEmptyFieldsRoundTrip(t *testing.T) {
	m := NewInitData("", nil)
	b, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.InitData.ID != "" || len(got.InitData.PublicKey) != 0 {
		t.Errorf("expected empty fields, got %+v", got.InitData)
	}
}

func TestValidateRejectsZeroOrMultipleVariants(t *testing.T) {
	if err := (&Message{}).Validate(); err != ErrFramingError {
		t.Errorf("empty message: got %v, want ErrFramingError", err)
	}

	both := &Message{
		InitData:        &InitData{ID: "a"},
		KeyConfirmation: &KeyConfirmation{Data: []byte{1}},
	}
	if err := both.Validate(); err != ErrFramingError {
		t.Errorf("two variants set: got %v, want ErrFramingError", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0x09},              // unknown tag
		{byte(tagInitData)}, // missing length prefix
		{byte(tagInitData), 0, 0, 0, 5, 'h', 'i'}, // length says 5, only 2 bytes follow
	}
	for i, c := range cases {
		if _, err := Decode(c); err != ErrFramingError {
			t.Errorf("case %d: got %v, want ErrFramingError", i, err)
		}
	}
}

func TestDecodeRejectsTrailingGarbage(t *testing.T) {
	m := NewKeyConfirmation([]byte{0x01})
	b, _ := m.Encode()
	b = append(b, 0xFF) // trailing byte the field-length accounting didn't consume

	if _, err := Decode(b); err != ErrFramingError {
		t.Errorf("got %v, want ErrFramingError", err)
	}
}
