//go:build pskkernelcrypto && linux && !psksoftaes

package psk

import (
	"fmt"
	"io"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/backkem/rist/pkg/crypto/softaes"
)

// newAESBackend returns the kernel backend, driving a "ctr(aes)" skcipher
// through the Linux crypto API (AF_ALG). When the transform socket cannot
// be created (kernel without AF_ALG, seccomp filters) it degrades to the
// software cipher at construction time; behavior is identical either way.
func newAESBackend() (aesBackend, error) {
	tfm, err := unix.Socket(unix.AF_ALG, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return &kernelAESBackend{tfm: -1, op: -1}, nil
	}
	if err := unix.Bind(tfm, &unix.SockaddrALG{Type: "skcipher", Name: "ctr(aes)"}); err != nil {
		unix.Close(tfm)
		return &kernelAESBackend{tfm: -1, op: -1}, nil
	}
	return &kernelAESBackend{tfm: tfm, op: -1}, nil
}

// kernelAESBackend holds the transform socket (tfm) and the per-key
// operation socket (op). tfm < 0 means the crypto API is unavailable and
// soft carries the schedule instead.
type kernelAESBackend struct {
	tfm  int
	op   int
	soft *softaes.Cipher
}

func (b *kernelAESBackend) setKey(key []byte) error {
	if b.tfm < 0 {
		c, err := softaes.NewCipher(key)
		if err != nil {
			return err
		}
		if b.soft != nil {
			b.soft.Zeroize()
		}
		b.soft = c
		return nil
	}

	// The op socket binds the key at accept time; re-accept per key.
	if b.op >= 0 {
		unix.Close(b.op)
		b.op = -1
	}
	if err := unix.SetsockoptString(b.tfm, unix.SOL_ALG, unix.ALG_SET_KEY, string(key)); err != nil {
		return fmt.Errorf("kernel key setup: %w", err)
	}
	op, _, err := unix.Accept(b.tfm)
	if err != nil {
		return fmt.Errorf("kernel op socket: %w", err)
	}
	b.op = op
	return nil
}

func (b *kernelAESBackend) xorKeyStream(iv *[ivSize]byte, dst, src []byte) error {
	if b.tfm < 0 {
		if b.soft == nil {
			return ErrKeySetup
		}
		b.soft.XORKeyStreamCTR(iv[:], dst, src)
		return nil
	}
	if b.op < 0 {
		return ErrKeySetup
	}
	if len(src) == 0 {
		return nil
	}

	// One message per packet; payloads are far below the kernel's
	// per-message limit.
	if _, err := unix.SendmsgN(b.op, src, algCTRControl(iv), nil, 0); err != nil {
		return fmt.Errorf("kernel transform: %w", err)
	}
	for n := 0; n < len(src); {
		m, err := unix.Read(b.op, dst[n:len(src)])
		if err != nil {
			return fmt.Errorf("kernel transform read: %w", err)
		}
		if m == 0 {
			return fmt.Errorf("kernel transform read: %w", io.ErrUnexpectedEOF)
		}
		n += m
	}
	return nil
}

func (b *kernelAESBackend) destroy() {
	if b.soft != nil {
		b.soft.Zeroize()
		b.soft = nil
	}
	if b.op >= 0 {
		unix.Close(b.op)
		b.op = -1
	}
	if b.tfm >= 0 {
		unix.Close(b.tfm)
		b.tfm = -1
	}
}

// algCTRControl builds the ancillary data for one skcipher operation: an
// ALG_SET_OP selecting encryption (CTR decryption is the same keystream
// XOR) and an ALG_SET_IV carrying the counter block as a struct af_alg_iv.
func algCTRControl(iv *[ivSize]byte) []byte {
	const opLen = 4          // __u32 op
	const ivLen = 4 + ivSize // __u32 ivlen + iv bytes

	oob := make([]byte, unix.CmsgSpace(opLen)+unix.CmsgSpace(ivLen))

	h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
	h.Level = unix.SOL_ALG
	h.Type = unix.ALG_SET_OP
	h.SetLen(unix.CmsgLen(opLen))
	*(*uint32)(unsafe.Pointer(&oob[unix.CmsgLen(0)])) = unix.ALG_OP_ENCRYPT

	off := unix.CmsgSpace(opLen)
	h = (*unix.Cmsghdr)(unsafe.Pointer(&oob[off]))
	h.Level = unix.SOL_ALG
	h.Type = unix.ALG_SET_IV
	h.SetLen(unix.CmsgLen(ivLen))
	*(*uint32)(unsafe.Pointer(&oob[off+unix.CmsgLen(0)])) = ivSize
	copy(oob[off+unix.CmsgLen(0)+4:], iv[:])

	return oob
}
