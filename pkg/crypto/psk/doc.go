// Package psk implements pre-shared-key payload encryption for RIST-style
// transports (VSF TR-06-2 main profile): a passphrase and a session nonce
// are stretched into an AES key with PBKDF2-HMAC-SHA256, and each packet is
// transformed with AES-CTR keyed by the transport sequence number.
//
// The central type is Key, the per-peer encryption context. It owns the
// passphrase, the session nonce, the derived cipher schedule and the usage
// counters, and decides on every call whether the key must be refreshed
// before the transform proceeds.
//
// Key concepts:
//   - Nonce: non-secret 32-bit value; combined with the passphrase it
//     deterministically selects the session key, so peers agree on a key by
//     exchanging only the nonce. Zero is reserved and means "no key
//     established"; the decrypt side treats a zero nonce as unencrypted
//     traffic and passes it through.
//   - Rekey: drawing a fresh nonce (encrypt side) or adopting the observed
//     one (decrypt side) and re-deriving the key. Forced by SetPassphrase,
//     by the configured rotation budget, and by the reuse limit.
//   - Reuse limit: a key never serves more CTR transforms than the 32-bit
//     sequence space; past it the decrypt side refuses packets and the
//     encrypt side rotates.
//
// The encrypting peer establishes the nonce and must carry it in-band to
// the receiver (a transport concern, outside this package):
//
//	key, err := psk.New(psk.Config{Passphrase: "secret", KeySize: 256})
//	if err != nil { ... }
//	defer key.Destroy()
//
//	ct := make([]byte, len(payload))
//	if err := key.Encrypt(seq, greVersion, ct, payload); err != nil { ... }
//	send(key.Nonce(), seq, ct)
//
// The decrypting peer mirrors it, adopting whatever nonce it observes:
//
//	pt := make([]byte, len(ct))
//	err := key.Decrypt(nonce, seq, greVersion, pt, ct)
//	switch {
//	case errors.Is(err, psk.ErrUnencrypted):
//		pt = ct // plaintext pass-through
//	case err != nil:
//		// undecryptable, drop
//	}
//
// A Key is not safe for concurrent use. The intended deployment is one
// sequential encrypt path or one sequential decrypt path per peer; callers
// that share a context across goroutines must serialize access themselves.
//
// The cipher itself sits behind a backend selected at build time (see
// backend.go); all backends produce bit-identical ciphertext.
package psk
