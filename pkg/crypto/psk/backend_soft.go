//go:build psksoftaes || (pskkernelcrypto && !linux)

package psk

import "github.com/backkem/rist/pkg/crypto/softaes"

// newAESBackend returns the software backend, a table-driven AES that
// avoids platform cipher libraries entirely. It also stands in for the
// kernel backend on platforms without the Linux crypto API.
func newAESBackend() (aesBackend, error) {
	return &softAESBackend{}, nil
}

type softAESBackend struct {
	cipher *softaes.Cipher
}

func (b *softAESBackend) setKey(key []byte) error {
	c, err := softaes.NewCipher(key)
	if err != nil {
		return err
	}
	if b.cipher != nil {
		b.cipher.Zeroize()
	}
	b.cipher = c
	return nil
}

func (b *softAESBackend) xorKeyStream(iv *[ivSize]byte, dst, src []byte) error {
	if b.cipher == nil {
		return ErrKeySetup
	}
	b.cipher.XORKeyStreamCTR(iv[:], dst, src)
	return nil
}

func (b *softAESBackend) destroy() {
	if b.cipher != nil {
		b.cipher.Zeroize()
		b.cipher = nil
	}
}
