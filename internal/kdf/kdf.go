// Package kdf provides the hash, HKDF, and HMAC primitives the SPEKE engine
// composes: SHA-256 digests, RFC 5869 HKDF-Extract-and-Expand, and
// HMAC-SHA-256. All functions here are pure; there is no hidden state.
package kdf

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Hash returns SHA-256(concat(parts...)).
func Hash(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// HKDF derives length bytes from ikm using RFC 5869 HKDF-SHA-256 with the
// given salt and info.
func HKDF(salt, ikm, info []byte, length int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// HMACSHA256 computes HMAC-SHA-256(key, message).
func HMACSHA256(key, message []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

// ConstantTimeEqual reports whether a and b are equal, in time independent
// of their contents (though not of their lengths).
func ConstantTimeEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
