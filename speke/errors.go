package speke

import "errors"

var (
	// ErrInvalidParameter indicates the safe prime supplied to Create failed
	// validation, or the password-derived generator turned out degenerate
	// (0, 1, or p-1).
	ErrInvalidParameter = errors.New("speke: invalid parameter")

	// ErrAlreadyProvided indicates ProvideRemote was called more than once
	// on the same engine.
	ErrAlreadyProvided = errors.New("speke: remote key already provided")

	// ErrInvalidPeerKey indicates the remote public key is out of range or
	// outside the order-q subgroup, or equals the local public key.
	ErrInvalidPeerKey = errors.New("speke: invalid peer public key")

	// ErrInvalidPeerId indicates the remote id is unusable: empty, or equal
	// to the local engine's own id (no self-peering).
	ErrInvalidPeerId = errors.New("speke: invalid peer id")

	// ErrNotInitialized indicates a key-material accessor was called
	// before ProvideRemote succeeded.
	ErrNotInitialized = errors.New("speke: remote key not yet provided")
)
