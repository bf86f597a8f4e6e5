// Software table-driven AES-128/192/256 (FIPS-197) with a counter-mode
// helper. This is the pure-Go cipher used when the payload encryption layer
// is built without platform cipher libraries, and as the runtime fallback
// for the kernel crypto backend. It produces bit-identical output to any
// conforming AES-CTR implementation.
//
// The usual caveat for table-driven AES applies: lookups are not constant
// time. Payload encryption here protects stream confidentiality, not
// timing-attack-grade secrets; prefer the default backend where the platform
// provides hardware AES.

package softaes

import (
	"encoding/binary"
	"errors"
)

// BlockSize is the AES block size in bytes.
const BlockSize = 16

// Errors for cipher construction.
var (
	ErrInvalidKeySize = errors.New("softaes: invalid key size, must be 16, 24 or 32 bytes")
)

// sbox is the FIPS-197 Section 5.1.1 substitution table.
var sbox = [256]byte{
	0x63, 0x7c, 0x77, 0x7b, 0xf2, 0x6b, 0x6f, 0xc5, 0x30, 0x01, 0x67, 0x2b, 0xfe, 0xd7, 0xab, 0x76,
	0xca, 0x82, 0xc9, 0x7d, 0xfa, 0x59, 0x47, 0xf0, 0xad, 0xd4, 0xa2, 0xaf, 0x9c, 0xa4, 0x72, 0xc0,
	0xb7, 0xfd, 0x93, 0x26, 0x36, 0x3f, 0xf7, 0xcc, 0x34, 0xa5, 0xe5, 0xf1, 0x71, 0xd8, 0x31, 0x15,
	0x04, 0xc7, 0x23, 0xc3, 0x18, 0x96, 0x05, 0x9a, 0x07, 0x12, 0x80, 0xe2, 0xeb, 0x27, 0xb2, 0x75,
	0x09, 0x83, 0x2c, 0x1a, 0x1b, 0x6e, 0x5a, 0xa0, 0x52, 0x3b, 0xd6, 0xb3, 0x29, 0xe3, 0x2f, 0x84,
	0x53, 0xd1, 0x00, 0xed, 0x20, 0xfc, 0xb1, 0x5b, 0x6a, 0xcb, 0xbe, 0x39, 0x4a, 0x4c, 0x58, 0xcf,
	0xd0, 0xef, 0xaa, 0xfb, 0x43, 0x4d, 0x33, 0x85, 0x45, 0xf9, 0x02, 0x7f, 0x50, 0x3c, 0x9f, 0xa8,
	0x51, 0xa3, 0x40, 0x8f, 0x92, 0x9d, 0x38, 0xf5, 0xbc, 0xb6, 0xda, 0x21, 0x10, 0xff, 0xf3, 0xd2,
	0xcd, 0x0c, 0x13, 0xec, 0x5f, 0x97, 0x44, 0x17, 0xc4, 0xa7, 0x7e, 0x3d, 0x64, 0x5d, 0x19, 0x73,
	0x60, 0x81, 0x4f, 0xdc, 0x22, 0x2a, 0x90, 0x88, 0x46, 0xee, 0xb8, 0x14, 0xde, 0x5e, 0x0b, 0xdb,
	0xe0, 0x32, 0x3a, 0x0a, 0x49, 0x06, 0x24, 0x5c, 0xc2, 0xd3, 0xac, 0x62, 0x91, 0x95, 0xe4, 0x79,
	0xe7, 0xc8, 0x37, 0x6d, 0x8d, 0xd5, 0x4e, 0xa9, 0x6c, 0x56, 0xf4, 0xea, 0x65, 0x7a, 0xae, 0x08,
	0xba, 0x78, 0x25, 0x2e, 0x1c, 0xa6, 0xb4, 0xc6, 0xe8, 0xdd, 0x74, 0x1f, 0x4b, 0xbd, 0x8b, 0x8a,
	0x70, 0x3e, 0xb5, 0x66, 0x48, 0x03, 0xf6, 0x0e, 0x61, 0x35, 0x57, 0xb9, 0x86, 0xc1, 0x1d, 0x9e,
	0xe1, 0xf8, 0x98, 0x11, 0x69, 0xd9, 0x8e, 0x94, 0x9b, 0x1e, 0x87, 0xe9, 0xce, 0x55, 0x28, 0xdf,
	0x8c, 0xa1, 0x89, 0x0d, 0xbf, 0xe6, 0x42, 0x68, 0x41, 0x99, 0x2d, 0x0f, 0xb0, 0x54, 0xbb, 0x16,
}

// rcon holds the round constants for key expansion (FIPS-197 Section 5.2).
var rcon = [10]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

// Encryption tables: te0[x] packs SubBytes and MixColumns for one byte
// position; te1..te3 are byte rotations of te0. Built once at init from the
// S-box rather than spelled out as 4 KiB of literals.
var te0, te1, te2, te3 [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		s := uint32(sbox[i])
		s2 := uint32(xtime(sbox[i]))
		s3 := s2 ^ s
		te0[i] = s2<<24 | s<<16 | s<<8 | s3
		te1[i] = s3<<24 | s2<<16 | s<<8 | s
		te2[i] = s<<24 | s3<<16 | s2<<8 | s
		te3[i] = s<<24 | s<<16 | s3<<8 | s2
	}
}

// xtime multiplies by x in GF(2^8) modulo the AES polynomial.
func xtime(b byte) byte {
	x := b << 1
	if b&0x80 != 0 {
		x ^= 0x1b
	}
	return x
}

// Cipher is an expanded AES encryption key schedule.
//
// A Cipher is immutable after construction (except Zeroize) and safe for
// concurrent block encryption.
type Cipher struct {
	rounds int
	enc    [60]uint32 // 4*(rounds+1) words used; 60 covers AES-256
}

// NewCipher expands key into an encryption schedule. The key must be 16, 24
// or 32 bytes, selecting AES-128, AES-192 or AES-256.
func NewCipher(key []byte) (*Cipher, error) {
	var rounds int
	switch len(key) {
	case 16:
		rounds = 10
	case 24:
		rounds = 12
	case 32:
		rounds = 14
	default:
		return nil, ErrInvalidKeySize
	}

	c := &Cipher{rounds: rounds}
	expandKey(key, c.enc[:4*(rounds+1)])
	return c, nil
}

// expandKey implements the FIPS-197 Section 5.2 key expansion for the
// encryption direction.
func expandKey(key []byte, w []uint32) {
	nk := len(key) / 4
	for i := 0; i < nk; i++ {
		w[i] = binary.BigEndian.Uint32(key[4*i:])
	}
	for i := nk; i < len(w); i++ {
		t := w[i-1]
		switch {
		case i%nk == 0:
			t = subw(rotw(t)) ^ uint32(rcon[i/nk-1])<<24
		case nk > 6 && i%nk == 4:
			t = subw(t)
		}
		w[i] = w[i-nk] ^ t
	}
}

// subw applies the S-box to each byte of a word.
func subw(t uint32) uint32 {
	return uint32(sbox[t>>24])<<24 |
		uint32(sbox[t>>16&0xff])<<16 |
		uint32(sbox[t>>8&0xff])<<8 |
		uint32(sbox[t&0xff])
}

// rotw rotates a word left by one byte.
func rotw(t uint32) uint32 { return t<<8 | t>>24 }

// BlockSize returns the AES block size (16 bytes).
func (c *Cipher) BlockSize() int { return BlockSize }

// EncryptBlock encrypts exactly one 16-byte block from src into dst.
// dst and src may overlap entirely. Panics if either is shorter than a
// block.
func (c *Cipher) EncryptBlock(dst, src []byte) {
	if len(src) < BlockSize {
		panic("softaes: input not full block")
	}
	if len(dst) < BlockSize {
		panic("softaes: output not full block")
	}

	xk := c.enc[:]
	s0 := binary.BigEndian.Uint32(src[0:4]) ^ xk[0]
	s1 := binary.BigEndian.Uint32(src[4:8]) ^ xk[1]
	s2 := binary.BigEndian.Uint32(src[8:12]) ^ xk[2]
	s3 := binary.BigEndian.Uint32(src[12:16]) ^ xk[3]

	k := 4
	var t0, t1, t2, t3 uint32
	for r := 0; r < c.rounds-1; r++ {
		t0 = xk[k+0] ^ te0[s0>>24] ^ te1[s1>>16&0xff] ^ te2[s2>>8&0xff] ^ te3[s3&0xff]
		t1 = xk[k+1] ^ te0[s1>>24] ^ te1[s2>>16&0xff] ^ te2[s3>>8&0xff] ^ te3[s0&0xff]
		t2 = xk[k+2] ^ te0[s2>>24] ^ te1[s3>>16&0xff] ^ te2[s0>>8&0xff] ^ te3[s1&0xff]
		t3 = xk[k+3] ^ te0[s3>>24] ^ te1[s0>>16&0xff] ^ te2[s1>>8&0xff] ^ te3[s2&0xff]
		k += 4
		s0, s1, s2, s3 = t0, t1, t2, t3
	}

	// Final round: SubBytes and ShiftRows without MixColumns.
	s0 = uint32(sbox[t0>>24])<<24 | uint32(sbox[t1>>16&0xff])<<16 | uint32(sbox[t2>>8&0xff])<<8 | uint32(sbox[t3&0xff])
	s1 = uint32(sbox[t1>>24])<<24 | uint32(sbox[t2>>16&0xff])<<16 | uint32(sbox[t3>>8&0xff])<<8 | uint32(sbox[t0&0xff])
	s2 = uint32(sbox[t2>>24])<<24 | uint32(sbox[t3>>16&0xff])<<16 | uint32(sbox[t0>>8&0xff])<<8 | uint32(sbox[t1&0xff])
	s3 = uint32(sbox[t3>>24])<<24 | uint32(sbox[t0>>16&0xff])<<16 | uint32(sbox[t1>>8&0xff])<<8 | uint32(sbox[t2&0xff])

	s0 ^= xk[k+0]
	s1 ^= xk[k+1]
	s2 ^= xk[k+2]
	s3 ^= xk[k+3]

	binary.BigEndian.PutUint32(dst[0:4], s0)
	binary.BigEndian.PutUint32(dst[4:8], s1)
	binary.BigEndian.PutUint32(dst[8:12], s2)
	binary.BigEndian.PutUint32(dst[12:16], s3)
}

// XORKeyStreamCTR XORs src with the CTR keystream for the given initial
// counter block into dst, per NIST SP 800-38A Section 6.5 with the full
// 16-byte block treated as a big-endian counter. Encryption and decryption
// are the same operation.
//
// iv must be 16 bytes; it is not modified. dst must be at least as long as
// src; they may overlap entirely. Panics on size misuse, mirroring
// crypto/cipher stream semantics.
func (c *Cipher) XORKeyStreamCTR(iv, dst, src []byte) {
	if len(iv) != BlockSize {
		panic("softaes: iv length must be 16 bytes")
	}
	if len(dst) < len(src) {
		panic("softaes: output smaller than input")
	}

	var ctr, ks [BlockSize]byte
	copy(ctr[:], iv)

	for len(src) > 0 {
		c.EncryptBlock(ks[:], ctr[:])
		n := len(src)
		if n > BlockSize {
			n = BlockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ ks[i]
		}
		dst = dst[n:]
		src = src[n:]
		incrementCounter(&ctr)
	}
	clear(ks[:])
}

// incrementCounter adds one to a 128-bit big-endian counter block.
func incrementCounter(ctr *[BlockSize]byte) {
	for i := BlockSize - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}

// Zeroize clears the expanded key schedule. The Cipher must not be used
// afterwards.
func (c *Cipher) Zeroize() {
	clear(c.enc[:])
	c.rounds = 0
}
