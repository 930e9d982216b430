package kdf

import (
	"testing"

	"github.com/go-test/deep"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash([]byte("hello"), []byte("world"))
	b := Hash([]byte("helloworld"))
	if diff := deep.Equal(a, b); diff != nil {
		t.Errorf("Hash should be a pure function of concatenated input: %v", diff)
	}
}

func TestHKDFLength(t *testing.T) {
	out, err := HKDF([]byte("salt"), []byte("ikm"), []byte("info"), 44)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 44 {
		t.Fatalf("got %d bytes, want 44", len(out))
	}
}

func TestHKDFDeterministic(t *testing.T) {
	a, err := HKDF([]byte("salt"), []byte("ikm"), []byte("info"), 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := HKDF([]byte("salt"), []byte("ikm"), []byte("info"), 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := deep.Equal(a, b); diff != nil {
		t.Errorf("HKDF should be deterministic for identical input: %v", diff)
	}
}

func TestHKDFSensitiveToSalt(t *testing.T) {
	a, _ := HKDF([]byte("salt-a"), []byte("ikm"), []byte("info"), 32)
	b, _ := HKDF([]byte("salt-b"), []byte("ikm"), []byte("info"), 32)
	if deep.Equal(a, b) == nil {
		t.Error("different salts should produce different output")
	}
}

func TestHMACSHA256(t *testing.T) {
	sig := HMACSHA256([]byte("key"), []byte("message"))
	if len(sig) != 32 {
		t.Fatalf("got %d bytes, want 32", len(sig))
	}
	if !ConstantTimeEqual(sig, HMACSHA256([]byte("key"), []byte("message"))) {
		t.Error("HMAC should be deterministic for identical input")
	}
}

func TestConstantTimeEqualDetectsFlippedByte(t *testing.T) {
	msg := []byte("ping")
	sig := HMACSHA256([]byte("key"), msg)

	if !ConstantTimeEqual(sig, HMACSHA256([]byte("key"), msg)) {
		t.Fatal("expected equal signatures to compare equal")
	}

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 0x01
	if ConstantTimeEqual(sig, HMACSHA256([]byte("key"), tampered)) {
		t.Error("flipping a message byte should change the signature")
	}

	tamperedSig := append([]byte(nil), sig...)
	tamperedSig[0] ^= 0x01
	if ConstantTimeEqual(tamperedSig, HMACSHA256([]byte("key"), msg)) {
		t.Error("flipping a signature byte should break the comparison")
	}
}
