package session

import "errors"

var (
	// ErrIllegalState indicates the caller invoked Start or SendMessage
	// from a state that does not permit it.
	ErrIllegalState = errors.New("session: illegal state")

	// ErrNotInitialized indicates SendMessage was called before the local
	// engine has an encryption key, i.e. before the peer's InitData has
	// been received and accepted.
	ErrNotInitialized = errors.New("session: encryption key not yet available")
)
