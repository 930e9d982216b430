// Package speke implements the cryptographic core of Simple Password
// Exponential Key Exchange: group parameter validation, the
// password-derived generator, the Diffie-Hellman exchange, unique-id
// construction, key derivation, key-confirmation data, and HMAC message
// authentication (spec.md §3-4.3).
//
// Package speke performs no I/O; it is driven by the session package, which
// frames it as a state machine over a byte stream.
package speke

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/jakub-w/speke-go/internal/group"
	"github.com/jakub-w/speke-go/internal/kdf"
)

// CipherType selects the key and nonce lengths the HKDF output is split
// into (spec.md §3, §6). The zero value is invalid; use DefaultCipherType
// or a caller-supplied value with WithCipherType.
type CipherType struct {
	KeyLen int
	IVLen  int
}

// DefaultCipherType matches AES-256-GCM: a 32-byte key and a 12-byte nonce.
// The engine never touches an AEAD directly — it only produces key material
// sized for whichever one the caller applies at the record layer.
var DefaultCipherType = CipherType{KeyLen: 32, IVLen: 12}

type config struct {
	cipher    CipherType
	idCounter *IDCounter
}

// Option configures Create.
type Option func(*config)

// WithCipherType overrides the default AES-256-GCM sizing of the derived
// key material.
func WithCipherType(c CipherType) Option {
	return func(cfg *config) { cfg.cipher = c }
}

// WithIDCounter overrides the library-provided singleton counter used to
// number ids (spec.md §9's "explicit counter service" escape hatch).
func WithIDCounter(c *IDCounter) Option {
	return func(cfg *config) { cfg.idCounter = c }
}

func defaultConfig() *config {
	return &config{cipher: DefaultCipherType, idCounter: defaultIDCounter}
}

// Engine holds one party's SPEKE session secrets and implements the
// handshake, key derivation, key confirmation, and HMAC operations of
// spec.md §4.3.
//
// An Engine is safe for concurrent use, but the session package that
// drives it serializes access anyway (spec.md §4.5, §5): the exchange is
// not designed to tolerate concurrent ProvideRemote/derivation races beyond
// what the mutex below prevents from corrupting memory.
type Engine struct {
	cipher    CipherType
	idCounter *IDCounter

	p *group.SafePrime

	id         string
	idNumbered string

	x *big.Int // private exponent, zeroed on Destroy
	y *big.Int // public key g^x mod p

	mu             sync.Mutex
	remoteProvided bool
	remoteID       string
	remoteIDNum    string
	remoteY        *big.Int

	deriveOnce sync.Once
	deriveErr  error

	keyingMaterial []byte
	encryptionKey  []byte
	nonce          []byte
	kcd            []byte

	destroyed bool
}

// Create validates p, derives the password generator, samples a private
// exponent, and numbers id, per spec.md §4.3.
func Create(id string, password []byte, p *big.Int, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	sp, err := group.NewSafePrime(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	g := computeGenerator(password, sp.P)
	if isDegenerate(g, sp.P) {
		return nil, fmt.Errorf("%w: password-derived generator is degenerate", ErrInvalidParameter)
	}

	x, err := group.RandomExponent(sp.Q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	y := sp.Exp(g, x)

	idNumbered := fmt.Sprintf("%s:%d", id, cfg.idCounter.Next(id))

	return &Engine{
		cipher:     cfg.cipher,
		idCounter:  cfg.idCounter,
		p:          sp,
		id:         id,
		idNumbered: idNumbered,
		x:          x,
		y:          y,
	}, nil
}

// computeGenerator derives g = H(password)^2 mod p. Squaring lifts the
// hash into the unique order-q subgroup of Z*_p regardless of what the
// attacker manages to influence via the password (spec.md §3, §4.3).
func computeGenerator(password []byte, p *big.Int) *big.Int {
	h := kdf.Hash(password)
	base := new(big.Int).SetBytes(h)
	base.Mod(base, p)
	g := new(big.Int).Mul(base, base)
	return g.Mod(g, p)
}

func isDegenerate(g, p *big.Int) bool {
	if g.Sign() == 0 || g.Cmp(big.NewInt(1)) == 0 {
		return true
	}
	pMinus1 := new(big.Int).Sub(p, big.NewInt(1))
	return g.Cmp(pMinus1) == 0
}

// PublicKey returns Y as minimal-length unsigned big-endian bytes.
func (e *Engine) PublicKey() []byte {
	return group.Bytes(e.y)
}

// Id returns id_numbered: the caller-supplied id with the process-local
// counter suffix appended.
func (e *Engine) Id() string {
	return e.idNumbered
}

// RawID returns the caller-supplied id as passed to Create, without the
// counter suffix. This is what a session sends on the wire as InitData's
// id field — the peer's ProvideRemote is the one that numbers it, the same
// way Create numbers the local id (spec.md §4.3). Sending Id() instead
// would double-number the string and make the two sides derive different
// keying material.
func (e *Engine) RawID() string {
	return e.id
}

// ProvideRemote accepts the peer's public key and id exactly once.
//
// remoteID is the peer's raw, caller-supplied id (RawID(), not Id()) —
// ProvideRemote numbers it itself, with the same counter mechanism used
// for the local id. It validates that remoteY is in [2, p-2], is a member
// of the order-q subgroup, and is not equal to this engine's own public
// key, and rejects remoteID if it equals this engine's own id (no
// self-peering). The counter is only advanced once validation succeeds
// (original_source's SpekeSession only numbers ids that get past the
// checks).
func (e *Engine) ProvideRemote(remoteYBytes []byte, remoteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.remoteProvided {
		return ErrAlreadyProvided
	}

	if remoteID == "" || remoteID == e.id {
		return ErrInvalidPeerId
	}

	remoteY, err := group.FromBytes(remoteYBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPeerKey, err)
	}

	pMinus2 := new(big.Int).Sub(e.p.P, big.NewInt(2))
	if !group.InRange(remoteY, big.NewInt(2), pMinus2) {
		return ErrInvalidPeerKey
	}
	if !e.p.InSubgroup(remoteY) {
		return ErrInvalidPeerKey
	}
	if remoteY.Cmp(e.y) == 0 {
		return ErrInvalidPeerKey
	}

	e.remoteID = remoteID
	e.remoteIDNum = fmt.Sprintf("%s:%d", remoteID, e.idCounter.Next(remoteID))
	e.remoteY = remoteY
	e.remoteProvided = true

	return nil
}

func (e *Engine) hasRemote() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remoteProvided
}

// deriveKeyMaterial computes K_dh, keying_material, the HKDF output, and
// the key confirmation data, exactly once, caching the results (spec.md
// §3). It requires ProvideRemote to have already succeeded.
func (e *Engine) deriveKeyMaterial() error {
	if !e.hasRemote() {
		return ErrNotInitialized
	}

	e.deriveOnce.Do(func() {
		e.mu.Lock()
		remoteY := e.remoteY
		remoteIDNum := e.remoteIDNum
		e.mu.Unlock()

		kdh := e.p.Exp(remoteY, e.x)

		yBytes := group.Bytes(e.y)
		remoteYBytes := group.Bytes(remoteY)

		minID, maxID := group.MinMaxStrings(e.idNumbered, remoteIDNum)
		minY, maxY := group.MinMaxBytes(yBytes, remoteYBytes)

		e.keyingMaterial = kdf.Hash(
			[]byte(minID), []byte(maxID), minY, maxY, group.Bytes(kdh),
		)

		salt := append(append([]byte{}, minY...), maxY...)
		hkdfOut, err := kdf.HKDF(salt, e.keyingMaterial, nil, e.cipher.KeyLen+e.cipher.IVLen)
		if err != nil {
			e.deriveErr = err
			return
		}
		e.encryptionKey = hkdfOut[:e.cipher.KeyLen]
		e.nonce = hkdfOut[e.cipher.KeyLen:]

		e.kcd = kdf.HMACSHA256(
			e.encryptionKey,
			kdf.Hash([]byte(e.idNumbered), []byte(remoteIDNum), yBytes, remoteYBytes),
		)
	})

	return e.deriveErr
}

// EncryptionKey lazily derives and caches the record-layer key. It fails
// with ErrNotInitialized until ProvideRemote has succeeded.
func (e *Engine) EncryptionKey() ([]byte, error) {
	if err := e.deriveKeyMaterial(); err != nil {
		return nil, err
	}
	return e.encryptionKey, nil
}

// Nonce lazily derives and caches the record-layer nonce/IV. It fails with
// ErrNotInitialized until ProvideRemote has succeeded.
func (e *Engine) Nonce() ([]byte, error) {
	if err := e.deriveKeyMaterial(); err != nil {
		return nil, err
	}
	return e.nonce, nil
}

// KeyConfirmationData lazily derives and returns this engine's key
// confirmation tag, meant to be sent to the peer for use with ConfirmKey.
func (e *Engine) KeyConfirmationData() ([]byte, error) {
	if err := e.deriveKeyMaterial(); err != nil {
		return nil, err
	}
	return e.kcd, nil
}

// ConfirmKey checks remoteKCD against the confirmation tag we expect the
// peer to have produced. It computes that expectation with id/pubkey order
// swapped relative to KeyConfirmationData, since the peer signed with its
// own side first (spec.md §4.3). It does not mutate engine state and
// returns false (rather than erroring) if the remote key has not been
// provided yet, since there is nothing meaningful to confirm.
func (e *Engine) ConfirmKey(remoteKCD []byte) bool {
	if err := e.deriveKeyMaterial(); err != nil {
		return false
	}

	e.mu.Lock()
	remoteY := e.remoteY
	remoteIDNum := e.remoteIDNum
	e.mu.Unlock()

	expected := kdf.HMACSHA256(
		e.encryptionKey,
		kdf.Hash([]byte(remoteIDNum), []byte(e.idNumbered), group.Bytes(remoteY), group.Bytes(e.y)),
	)
	return kdf.ConstantTimeEqual(remoteKCD, expected)
}

// HmacSign returns HMAC(encryption_key, message), failing with
// ErrNotInitialized until the encryption key is available.
func (e *Engine) HmacSign(message []byte) ([]byte, error) {
	key, err := e.EncryptionKey()
	if err != nil {
		return nil, err
	}
	return kdf.HMACSHA256(key, message), nil
}

// ConfirmHmacSignature reports whether sig is a valid HMAC over message
// under the encryption key, in constant time.
func (e *Engine) ConfirmHmacSignature(sig, message []byte) bool {
	key, err := e.EncryptionKey()
	if err != nil {
		return false
	}
	return kdf.ConstantTimeEqual(sig, kdf.HMACSHA256(key, message))
}

// Destroy zeroes every secret this engine holds: the private exponent, the
// keying material, the encryption key, and the nonce. It is safe to call
// more than once.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return
	}
	e.destroyed = true

	if e.x != nil {
		e.x.SetInt64(0)
	}
	zeroize(e.keyingMaterial)
	zeroize(e.encryptionKey)
	zeroize(e.nonce)
	zeroize(e.kcd)
}

// zeroize overwrites b in place. It is a plain loop rather than a call
// into a "secure memory" package because none of this pack's dependencies
// ship one; the Go compiler is not free to elide writes observable through
// a slice header escaping this function the way it is here.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
