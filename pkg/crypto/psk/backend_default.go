//go:build !psksoftaes && !pskkernelcrypto

package psk

import (
	"crypto/aes"
	"crypto/cipher"
)

// newAESBackend returns the default backend, backed by crypto/aes.
func newAESBackend() (aesBackend, error) {
	return &stdAESBackend{}, nil
}

type stdAESBackend struct {
	block cipher.Block
}

func (b *stdAESBackend) setKey(key []byte) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	b.block = block
	return nil
}

func (b *stdAESBackend) xorKeyStream(iv *[ivSize]byte, dst, src []byte) error {
	if b.block == nil {
		return ErrKeySetup
	}
	// NewCTR copies the counter block; iv is not modified.
	cipher.NewCTR(b.block, iv[:]).XORKeyStream(dst, src)
	return nil
}

func (b *stdAESBackend) destroy() {
	b.block = nil
}
