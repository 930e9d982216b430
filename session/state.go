package session

// State is one node of the session state machine of spec.md §4.5.
type State int

const (
	// StateIdle is the state a Session starts in, before Start is called.
	StateIdle State = iota

	// StateRunning is the state a Session is in from Start until any
	// terminal condition is reached.
	StateRunning

	// StateStopped is the terminal state reached by an explicit Close
	// call that names no more specific terminal state.
	StateStopped

	// StateStoppedError is the terminal state reached after a transport
	// error other than a clean disconnect.
	StateStoppedError

	// StateStoppedPeerDisconnected is the terminal state reached when the
	// peer closes the connection (EOF / broken pipe).
	StateStoppedPeerDisconnected

	// StateStoppedPeerKeyOrIDInvalid is the terminal state reached when
	// the peer's public key or id fails validation.
	StateStoppedPeerKeyOrIDInvalid

	// StateStoppedKeyConfirmationFailed is the terminal state reached
	// when the peer's key confirmation data does not match.
	StateStoppedKeyConfirmationFailed

	// StateStoppedPeerBadBehavior is the terminal state reached when the
	// peer's HMAC verification failures reach the configured limit.
	StateStoppedPeerBadBehavior
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	case StateStoppedError:
		return "STOPPED_ERROR"
	case StateStoppedPeerDisconnected:
		return "STOPPED_PEER_DISCONNECTED"
	case StateStoppedPeerKeyOrIDInvalid:
		return "STOPPED_PEER_PUBLIC_KEY_OR_ID_INVALID"
	case StateStoppedKeyConfirmationFailed:
		return "STOPPED_KEY_CONFIRMATION_FAILED"
	case StateStoppedPeerBadBehavior:
		return "STOPPED_PEER_BAD_BEHAVIOR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is any of the STOPPED_* states or STOPPED
// itself, i.e. whether the session is done.
func (s State) Terminal() bool {
	return s != StateIdle && s != StateRunning
}
