// Package session drives the SPEKE engine (package speke) as a framed,
// length-prefixed message protocol over a reliable byte stream
// (spec.md §4.5). It orchestrates the handshake, enforces the message
// ordering and misbehavior budget, and dispatches authenticated
// application payloads to a caller-supplied handler.
package session

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/pion/logging"

	"github.com/jakub-w/speke-go/speke"
	"github.com/jakub-w/speke-go/wire"
)

// DefaultBadBehaviorLimit is the number of HMAC verification failures
// tolerated before a session is terminated (spec.md §4.5, §6).
const DefaultBadBehaviorLimit = 3

// Transport is the capability a Session needs from its byte stream: a
// connected, reliable, ordered, bidirectional stream the session can read
// from, write to, and close. Both net.Conn and net.Pipe() connections
// satisfy it, as does anything else implementing io.ReadWriteCloser —
// spec.md §9's "template-per-transport" design note, reframed as an
// interface instead of a per-transport specialization.
type Transport = io.ReadWriteCloser

// halfCloser is an optional capability: transports that support shutting
// down each direction independently (e.g. *net.TCPConn) get a cleaner
// close than a bare Close().
type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

// Handler is invoked with each authenticated application payload the peer
// sends, along with the Session it arrived on.
type Handler func(payload []byte, s *Session)

// Config configures a Session.
type Config struct {
	// BadBehaviorLimit overrides DefaultBadBehaviorLimit.
	BadBehaviorLimit int

	// LoggerFactory is used to create a logger for session diagnostics.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Session is the SPEKE session state machine of spec.md §4.5.
type Session struct {
	transport Transport
	engine    *speke.Engine
	cfg       Config
	log       logging.LeveledLogger

	writer  *wire.StreamWriter
	reader  *wire.StreamReader
	writeMu sync.Mutex

	mu               sync.Mutex
	state            State
	closed           bool
	peerConfirmed    bool
	badBehaviorCount int

	handlerMu sync.RWMutex
	handler   Handler
}

// New constructs a Session over transport, driving engine. The session
// starts in StateIdle; call Start to begin the handshake.
func New(transport Transport, engine *speke.Engine, cfg Config) *Session {
	if cfg.BadBehaviorLimit <= 0 {
		cfg.BadBehaviorLimit = DefaultBadBehaviorLimit
	}

	s := &Session{
		transport: transport,
		engine:    engine,
		cfg:       cfg,
		writer:    wire.NewStreamWriter(transport),
		reader:    wire.NewStreamReader(transport),
		state:     StateIdle,
	}
	if cfg.LoggerFactory != nil {
		s.log = cfg.LoggerFactory.NewLogger("session")
	}
	return s
}

// Start transitions the session from IDLE to RUNNING, sends the local
// InitData, and arms the read loop. It fails with ErrIllegalState unless
// the session is currently IDLE.
func (s *Session) Start(handler Handler) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrIllegalState
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.SetMessageHandler(handler)

	// The reader is armed before the initial InitData is sent: over a
	// synchronous transport like net.Pipe(), a blocking write with no
	// reader on the other end yet would deadlock two peers racing to
	// Start at the same time.
	go s.readLoop()

	s.sendAsync(wire.NewInitData(s.engine.RawID(), s.engine.PublicKey()))

	return nil
}

// sendAsync writes msg off the calling goroutine. Every send triggered from
// inside the read loop (InitData, KeyConfirmation) goes through this path:
// a synchronous write from within handleMessage would block waiting for the
// peer's read loop to cycle back to its next Read, which it can't do while
// it is itself blocked sending its own reply — two peers replying to each
// other's first message at the same time would deadlock over a synchronous
// transport like net.Pipe() otherwise.
func (s *Session) sendAsync(msg *wire.Message) {
	go func() {
		if err := s.writeMessage(msg); err != nil {
			s.closeOnTransportError(err)
		}
	}()
}

// SendMessage HMAC-signs payload and sends it as SignedData. It fails with
// ErrIllegalState unless the session is RUNNING, and with ErrNotInitialized
// if the local encryption key is not yet available — i.e. the peer's
// InitData has not yet been received and accepted (spec.md §4.5, §9: this
// module resolves the pre-init SendMessage question as fail-fast).
func (s *Session) SendMessage(payload []byte) error {
	if s.GetState() != StateRunning {
		return ErrIllegalState
	}

	sig, err := s.engine.HmacSign(payload)
	if err != nil {
		return ErrNotInitialized
	}

	msg := wire.NewSignedData(sig, payload)
	if err := s.writeMessage(msg); err != nil {
		s.closeOnTransportError(err)
		return err
	}
	return nil
}

// GetState returns the session's current state.
func (s *Session) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PeerConfirmed reports whether the peer's key confirmation data has been
// validated.
func (s *Session) PeerConfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerConfirmed
}

// SetMessageHandler replaces the handler invoked for each authenticated
// application payload. It is safe to call concurrently with message
// dispatch; the replacement takes effect for the next dispatched message.
func (s *Session) SetMessageHandler(h Handler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handler = h
}

func (s *Session) currentHandler() Handler {
	s.handlerMu.RLock()
	defer s.handlerMu.RUnlock()
	return s.handler
}

// Close terminates the session, shutting down the transport in both
// directions and releasing the engine's secrets. It is idempotent.
func (s *Session) Close() error {
	s.closeWithState(StateStopped)
	return nil
}

func (s *Session) writeMessage(msg *wire.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.writer.WriteMessage(msg)
}

// readLoop issues reads strictly sequentially: the next Read is only
// issued once the current message has been fully handled, so the SPEKE
// engine never sees concurrent mutation (spec.md §4.5, §5).
func (s *Session) readLoop() {
	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			s.closeOnTransportError(err)
			return
		}
		if stop := s.handleMessage(msg); stop {
			return
		}
	}
}

func (s *Session) handleMessage(msg *wire.Message) bool {
	switch {
	case msg.InitData != nil:
		return s.handleInitData(msg.InitData)
	case msg.KeyConfirmation != nil:
		return s.handleKeyConfirmation(msg.KeyConfirmation)
	case msg.SignedData != nil:
		return s.handleSignedData(msg.SignedData)
	default:
		return false
	}
}

func (s *Session) handleInitData(init *wire.InitData) bool {
	err := s.engine.ProvideRemote(init.PublicKey, init.ID)
	switch {
	case err == nil:
		kcd, kerr := s.engine.KeyConfirmationData()
		if kerr != nil {
			s.closeWithState(StateStoppedError)
			return true
		}
		s.sendAsync(wire.NewKeyConfirmation(kcd))
		return false

	case errors.Is(err, speke.ErrAlreadyProvided):
		// A second InitData on an already-initialized session is a
		// duplicate, not an attack: an on-path adversary who cannot
		// forge HMACs could otherwise burn the misbehavior budget for
		// free by replaying the peer's own first message back at it.
		s.infof("ignoring duplicate InitData from peer")
		return false

	case errors.Is(err, speke.ErrInvalidPeerKey), errors.Is(err, speke.ErrInvalidPeerId):
		s.closeWithState(StateStoppedPeerKeyOrIDInvalid)
		return true

	default:
		s.closeWithState(StateStoppedError)
		return true
	}
}

func (s *Session) handleKeyConfirmation(kc *wire.KeyConfirmation) bool {
	if s.engine.ConfirmKey(kc.Data) {
		s.mu.Lock()
		s.peerConfirmed = true
		s.mu.Unlock()
		return false
	}
	s.closeWithState(StateStoppedKeyConfirmationFailed)
	return true
}

func (s *Session) handleSignedData(sd *wire.SignedData) bool {
	if s.engine.ConfirmHmacSignature(sd.HMACSignature, sd.Data) {
		if h := s.currentHandler(); h != nil {
			h(sd.Data, s)
		}
		return false
	}
	return s.recordBadBehavior()
}

func (s *Session) recordBadBehavior() bool {
	s.mu.Lock()
	s.badBehaviorCount++
	count := s.badBehaviorCount
	limit := s.cfg.BadBehaviorLimit
	s.mu.Unlock()

	s.warnf("HMAC verification failed (%d/%d)", count, limit)

	if count >= limit {
		s.closeWithState(StateStoppedPeerBadBehavior)
		return true
	}
	return false
}

func (s *Session) closeOnTransportError(err error) {
	if isDisconnect(err) {
		s.closeWithState(StateStoppedPeerDisconnected)
		return
	}
	s.closeWithState(StateStoppedError)
}

func isDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed)
}

func (s *Session) closeWithState(state State) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.state = state
	s.mu.Unlock()

	shutdown(s.transport)
	s.engine.Destroy()

	s.infof("session closed: %s", state)
}

func shutdown(t Transport) {
	if hc, ok := t.(halfCloser); ok {
		hc.CloseWrite()
		hc.CloseRead()
		return
	}
	t.Close()
}

func (s *Session) infof(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Infof(format, args...)
	}
}

func (s *Session) warnf(format string, args ...interface{}) {
	if s.log != nil {
		s.log.Warnf(format, args...)
	}
}
