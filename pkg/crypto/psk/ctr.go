package psk

import "encoding/binary"

// buildIV writes the counter block for one packet: all zero except the
// 4-byte big-endian sequence number. GRE version 1 headers place it at
// offset 0; every other version places it at offset 12, the low-order
// counter bytes. The offsets are wire-compatibility constants, not
// call-site options.
func buildIV(iv *[ivSize]byte, seq uint32, greVersion uint8) {
	*iv = [ivSize]byte{}
	offset := 12
	if greVersion == 1 {
		offset = 0
	}
	binary.BigEndian.PutUint32(iv[offset:offset+4], seq)
}

// transform XORs the keystream for seq over src into dst[:len(src)]. Every
// call counts against the key's usage budget, whether or not the backend
// succeeds.
func (k *Key) transform(seq uint32, greVersion uint8, dst, src []byte) error {
	if len(dst) < len(src) {
		return ErrShortBuffer
	}

	var iv [ivSize]byte
	buildIV(&iv, seq, greVersion)

	err := k.backend.xorKeyStream(&iv, dst[:len(src)], src)
	k.usedTimes++
	return err
}
