package psk

import "errors"

// Errors returned by the PSK encryption context. Decrypt failures fall in
// two classes callers must tell apart: ErrUnencrypted means the payload was
// never encrypted and should pass through, everything else means the packet
// is undecryptable and should be dropped.
var (
	// ErrInvalidKeySize is returned by New for key sizes other than 128,
	// 192 or 256 bits.
	ErrInvalidKeySize = errors.New("psk: invalid key size, must be 128, 192 or 256 bits")

	// ErrPassphraseEmpty is returned when an empty passphrase is supplied.
	ErrPassphraseEmpty = errors.New("psk: passphrase must not be empty")

	// ErrPassphraseTooLong is returned when a passphrase exceeds
	// MaxPassphraseLen. The context is left unchanged.
	ErrPassphraseTooLong = errors.New("psk: passphrase exceeds capacity")

	// ErrUnencrypted is returned by Decrypt when the observed nonce is
	// zero: no key is in play and the payload is plaintext. The output
	// buffer is left unwritten; callers forward the input as-is.
	ErrUnencrypted = errors.New("psk: zero nonce, payload is not encrypted")

	// ErrKeyExhausted is returned by Decrypt when the current key has hit
	// the reuse limit and the peer has not rotated yet. The output buffer
	// is left unwritten; callers drop the packet.
	ErrKeyExhausted = errors.New("psk: key reuse limit reached")

	// ErrKeySetup is returned when key derivation or the backend key
	// schedule fails. The context is left unkeyed and rekeys on the next
	// call.
	ErrKeySetup = errors.New("psk: cipher key setup failed")

	// ErrShortBuffer is returned when the output buffer is smaller than
	// the input.
	ErrShortBuffer = errors.New("psk: output buffer smaller than input")
)
