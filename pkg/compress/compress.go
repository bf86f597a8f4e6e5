// Package compress implements the optional LZ4 payload compression the
// sender applies ahead of encryption. Compression is advisory: a payload is
// only replaced when the block form is strictly smaller, and the caller
// flags compressed packets so the receiver knows to expand them.
package compress

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Compress returns the LZ4 block form of src and true when that form is
// smaller than src. Otherwise, for incompressible or empty input, it returns
// src unchanged and false, and the packet goes out uncompressed.
func Compress(src []byte) ([]byte, bool) {
	if len(src) == 0 {
		return src, false
	}

	var c lz4.Compressor
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, dst)
	if err != nil || n == 0 || n >= len(src) {
		return src, false
	}
	return dst[:n], true
}

// Decompress expands an LZ4 block into at most maxSize bytes. maxSize
// bounds hostile or corrupt length claims; packets that expand beyond it
// are rejected.
func Decompress(src []byte, maxSize int) ([]byte, error) {
	dst := make([]byte, maxSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: expand payload: %w", err)
	}
	return dst[:n], nil
}
