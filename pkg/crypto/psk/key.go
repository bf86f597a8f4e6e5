package psk

import (
	"fmt"

	"github.com/pion/logging"
)

// Capacity and usage bounds of a Key.
const (
	// MaxPassphraseLen is the passphrase capacity in bytes.
	MaxPassphraseLen = 128

	// KeyReuseLimit caps the number of CTR transforms under one derived
	// key. The counter block embeds a 32-bit sequence number, so a key
	// must never outlive the 32-bit sequence space.
	KeyReuseLimit = 1<<32 - 1
)

// Config carries the peer-level encryption settings for New.
type Config struct {
	// Passphrase is the pre-shared secret, 1..MaxPassphraseLen bytes.
	Passphrase string

	// KeySize is the AES key size in bits: 128, 192 or 256.
	KeySize int

	// KeyRotation is the number of packets sent under one key before the
	// sender rotates to a fresh nonce. 0 disables periodic rotation; the
	// reuse limit still applies.
	KeyRotation uint32

	// LoggerFactory optionally injects logging. Nothing is logged when
	// nil.
	LoggerFactory logging.LoggerFactory
}

// Key is the per-peer PSK encryption context: passphrase, session nonce,
// derived cipher schedule and usage accounting. A fresh Key is unkeyed; the
// first Encrypt (or SetPassphrase) establishes the nonce and derives the
// key, and the decrypt side adopts whatever nonce it observes in-band.
//
// A Key is not safe for concurrent use; see the package documentation.
type Key struct {
	passphrase []byte
	keySize    int
	rotation   uint32

	nonce     uint32
	usedTimes uint64

	backend aesBackend

	badDecryptFlag  bool
	badDecryptCount uint32

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

// New creates an unkeyed encryption context. The key size and passphrase
// are validated here; the first use derives the actual key.
func New(config Config) (*Key, error) {
	switch config.KeySize {
	case 128, 192, 256:
	default:
		return nil, ErrInvalidKeySize
	}
	if len(config.Passphrase) == 0 {
		return nil, ErrPassphraseEmpty
	}
	if len(config.Passphrase) > MaxPassphraseLen {
		return nil, ErrPassphraseTooLong
	}

	backend, err := newAESBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetup, err)
	}

	k := &Key{
		passphrase:    []byte(config.Passphrase),
		keySize:       config.KeySize,
		rotation:      config.KeyRotation,
		backend:       backend,
		loggerFactory: config.LoggerFactory,
	}
	if config.LoggerFactory != nil {
		k.log = config.LoggerFactory.NewLogger("psk")
	}
	return k, nil
}

// SetPassphrase replaces the pre-shared secret and forces an immediate
// rekey under a fresh nonce, regardless of usage counters. On
// ErrPassphraseTooLong or ErrPassphraseEmpty nothing changes; on a setup
// failure the Key is left unkeyed and rekeys on the next call.
func (k *Key) SetPassphrase(passphrase string) error {
	if k.backend == nil {
		return ErrKeySetup
	}
	if len(passphrase) == 0 {
		return ErrPassphraseEmpty
	}
	if len(passphrase) > MaxPassphraseLen {
		return ErrPassphraseTooLong
	}

	clear(k.passphrase)
	k.passphrase = []byte(passphrase)
	return k.rekey()
}

// Clone creates an independent context with the same passphrase, key size,
// rotation policy and logger. The clone is unkeyed, with no nonce and fresh
// counters, and never shares backend state with its parent.
func (k *Key) Clone() (*Key, error) {
	if k.backend == nil {
		return nil, ErrKeySetup
	}
	backend, err := newAESBackend()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeySetup, err)
	}
	return &Key{
		passphrase:    append([]byte(nil), k.passphrase...),
		keySize:       k.keySize,
		rotation:      k.rotation,
		backend:       backend,
		loggerFactory: k.loggerFactory,
		log:           k.log,
	}, nil
}

// Destroy clears the passphrase and releases the backend schedule and any
// OS resources it holds. Destroy is idempotent; a destroyed Key fails all
// further operations with ErrKeySetup.
func (k *Key) Destroy() {
	clear(k.passphrase)
	k.passphrase = nil
	if k.backend != nil {
		k.backend.destroy()
		k.backend = nil
	}
	k.nonce = 0
	k.usedTimes = 0
}

// needsEncryptRekey reports whether the next outbound transform requires a
// fresh key: nothing derived yet, the reuse limit about to be crossed, or
// the rotation budget spent.
func (k *Key) needsEncryptRekey() bool {
	if k.nonce == 0 {
		return true
	}
	if k.usedTimes+1 > KeyReuseLimit {
		return true
	}
	return k.rotation > 0 && k.usedTimes >= uint64(k.rotation)
}

// Encrypt transforms src into dst[:len(src)] under the current key, rotating
// first when the policy demands it. The session nonce after the call is
// available via Nonce; carrying it to the peer is the transport's job, this
// package never transmits it.
func (k *Key) Encrypt(seq uint32, greVersion uint8, dst, src []byte) error {
	if k.backend == nil {
		return ErrKeySetup
	}

	if k.needsEncryptRekey() {
		if k.log != nil {
			k.log.Debugf("rotating key: used=%d rotation=%d", k.usedTimes, k.rotation)
		}
		if err := k.rekey(); err != nil {
			return err
		}
	}
	return k.transform(seq, greVersion, dst, src)
}

// Decrypt transforms src into dst[:len(src)] under the key selected by the
// observed nonce, re-deriving when the peer has rotated.
//
// A zero observed nonce means the payload was never encrypted: Decrypt
// returns ErrUnencrypted, touches neither dst nor the context, and the
// caller forwards src as-is. ErrKeyExhausted means the current key is past
// its reuse limit and the packet is undecryptable until the peer rotates.
func (k *Key) Decrypt(observedNonce, seq uint32, greVersion uint8, dst, src []byte) error {
	if k.backend == nil {
		return ErrKeySetup
	}
	if observedNonce == 0 {
		return ErrUnencrypted
	}

	if observedNonce != k.nonce {
		if k.log != nil {
			k.log.Debugf("adopting peer nonce %08x (was %08x)", observedNonce, k.nonce)
		}
		k.nonce = observedNonce
		k.badDecryptFlag = false
		k.badDecryptCount = 0
		if err := k.deriveKey(); err != nil {
			return err
		}
	}

	if k.usedTimes > KeyReuseLimit {
		if k.log != nil {
			k.log.Warnf("refusing to decrypt: key used %d times", k.usedTimes)
		}
		return ErrKeyExhausted
	}
	return k.transform(seq, greVersion, dst, src)
}

// Nonce returns the active session nonce, 0 when no key is established.
func (k *Key) Nonce() uint32 { return k.nonce }

// UsedTimes returns the number of transforms since the last key derivation.
func (k *Key) UsedTimes() uint64 { return k.usedTimes }

// KeySize returns the AES key size in bits.
func (k *Key) KeySize() int { return k.keySize }

// Rotation returns the per-key packet budget, 0 when periodic rotation is
// disabled.
func (k *Key) Rotation() uint32 { return k.rotation }

// MarkBadDecryption records a payload that decrypted to garbage, e.g. one
// that failed upper-layer validation. The diagnostics reset when the peer
// rotates keys.
func (k *Key) MarkBadDecryption() {
	k.badDecryptFlag = true
	k.badDecryptCount++
}

// BadDecryptions returns the count of bad decryptions recorded since the
// last decrypt-side rekey and whether any occurred.
func (k *Key) BadDecryptions() (uint32, bool) {
	return k.badDecryptCount, k.badDecryptFlag
}
