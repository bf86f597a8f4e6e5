package compress

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	cases := []struct {
		name    string
		payload []byte
	}{
		{"text", bytes.Repeat([]byte("transport stream payload "), 64)},
		{"binary", bytes.Repeat([]byte{0x47, 0x00, 0x1f, 0xff}, 329)},
		{"large", bytes.Repeat([]byte("0123456789abcdef"), 8192)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			packed, ok := Compress(c.payload)
			if !ok {
				t.Fatal("expected repetitive payload to compress")
			}
			if len(packed) >= len(c.payload) {
				t.Fatalf("compressed form not smaller: %d >= %d", len(packed), len(c.payload))
			}

			out, err := Decompress(packed, len(c.payload)*2)
			if err != nil {
				t.Fatalf("Decompress() error: %v", err)
			}
			if !bytes.Equal(out, c.payload) {
				t.Fatal("round trip mismatch")
			}
		})
	}
}

func TestCompressIncompressible(t *testing.T) {
	payload := make([]byte, 512)
	if _, err := rand.Read(payload); err != nil {
		t.Fatal(err)
	}

	got, ok := Compress(payload)
	if ok {
		t.Fatal("random payload reported as compressed")
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("incompressible payload was altered")
	}
}

func TestCompressEmpty(t *testing.T) {
	got, ok := Compress(nil)
	if ok {
		t.Fatal("empty payload reported as compressed")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d bytes", len(got))
	}
}

func TestDecompressBoundTooSmall(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab, 0xcd}, 1024)
	packed, ok := Compress(payload)
	if !ok {
		t.Fatal("expected payload to compress")
	}

	if _, err := Decompress(packed, 16); err == nil {
		t.Fatal("expected error when expansion exceeds bound")
	}
}

func TestDecompressCorruptBlock(t *testing.T) {
	if _, err := Decompress([]byte{0xff, 0xff, 0xff, 0xff}, 64); err == nil {
		t.Fatal("expected error for corrupt block")
	}
}
