package psk

// ivSize is the AES-CTR counter block size in bytes.
const ivSize = 16

// aesBackend is the cipher capability a Key needs: install an AES key and
// XOR a CTR keystream over a payload. The build selects exactly one
// implementation via newAESBackend:
//
//   - default: crypto/aes, the implementation Go's TLS stack uses
//     (hardware-accelerated where available)
//   - psksoftaes: the table-driven software cipher in pkg/crypto/softaes
//   - pskkernelcrypto: the Linux kernel crypto API over AF_ALG, degrading
//     to the software cipher when the API is unavailable at runtime or the
//     target is not Linux
//
// Implementations must produce identical ciphertext for identical
// (key, iv, payload) inputs; callers never learn which one is in use.
type aesBackend interface {
	// setKey installs an AES key of 16, 24 or 32 bytes, replacing any
	// previous schedule.
	setKey(key []byte) error

	// xorKeyStream XORs the CTR keystream for iv over src into dst.
	// dst and src are the same length and may be the same slice.
	xorKeyStream(iv *[ivSize]byte, dst, src []byte) error

	// destroy releases schedule state and any OS resources. The backend
	// must not be used afterwards.
	destroy()
}
