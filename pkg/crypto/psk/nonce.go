package psk

import (
	"crypto/rand"
	"encoding/binary"
)

// drawNonce returns a uniformly random non-zero 32-bit session nonce. Zero
// is the "no key established" sentinel, so a zero draw is resampled rather
// than treated as an error.
func drawNonce() (uint32, error) {
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		if nonce := binary.BigEndian.Uint32(buf[:]); nonce != 0 {
			return nonce, nil
		}
	}
}
