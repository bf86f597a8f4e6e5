package psk

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// DeriveIterations is the PBKDF2-HMAC-SHA256 iteration count the main
// profile mandates for PSK derivation. Both peers must use the same count
// to arrive at the same key.
const DeriveIterations = 1024

// deriveKey stretches the passphrase into an AES key of the configured size
// and installs it in the backend. The current nonce is the salt, encoded
// big-endian so every platform derives the same key from the same exchange.
// Resets the usage counter as its final effect.
//
// On failure the context is left unkeyed (nonce zeroed) so the next call
// starts a clean rekey instead of running with a stale schedule.
func (k *Key) deriveKey() error {
	var salt [4]byte
	binary.BigEndian.PutUint32(salt[:], k.nonce)

	derived := pbkdf2.Key(k.passphrase, salt[:], DeriveIterations, k.keySize/8, sha256.New)
	err := k.backend.setKey(derived)
	clear(derived)
	if err != nil {
		k.nonce = 0
		if k.log != nil {
			k.log.Errorf("key setup failed: %v", err)
		}
		return fmt.Errorf("%w: %w", ErrKeySetup, err)
	}

	k.usedTimes = 0
	if k.log != nil {
		k.log.Debugf("derived %d-bit key under nonce %08x", k.keySize, k.nonce)
	}
	return nil
}

// rekey draws a fresh non-zero nonce and derives a key under it.
func (k *Key) rekey() error {
	nonce, err := drawNonce()
	if err != nil {
		k.nonce = 0
		return fmt.Errorf("%w: %w", ErrKeySetup, err)
	}
	k.nonce = nonce
	return k.deriveKey()
}
