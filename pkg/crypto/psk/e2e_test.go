package psk_test

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"

	"github.com/backkem/rist/pkg/compress"
	"github.com/backkem/rist/pkg/crypto/psk"
)

// Minimal framing for the in-memory link; the real transport carries the
// same fields in its GRE header.
//
//	version (1) | flags (1) | nonce (4, BE) | seq (4, BE) | payload
const (
	linkHeaderLen  = 10
	flagCompressed = 0x01
	greVersion     = 2
	maxPayload     = 16 * 1024
)

// pumpBridge delivers queued packets from a background goroutine until the
// test ends. The bridge hands a packet to a conn only while a Read is
// blocked on it, so delivery cannot run on the reading goroutine.
func pumpBridge(t *testing.T, br *test.Bridge) {
	t.Helper()
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				br.Tick()
			}
		}
	}()
	t.Cleanup(func() {
		close(stop)
		<-done
	})
}

func sendPacket(t *testing.T, conn net.Conn, flags byte, nonce, seq uint32, payload []byte) {
	t.Helper()
	pkt := make([]byte, 0, linkHeaderLen+len(payload))
	pkt = append(pkt, greVersion, flags)
	pkt = binary.BigEndian.AppendUint32(pkt, nonce)
	pkt = binary.BigEndian.AppendUint32(pkt, seq)
	pkt = append(pkt, payload...)
	if _, err := conn.Write(pkt); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func recvPacket(t *testing.T, conn net.Conn) (flags byte, nonce, seq uint32, payload []byte) {
	t.Helper()
	buf := make([]byte, maxPayload+linkHeaderLen)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n < linkHeaderLen {
		t.Fatalf("short packet: %d bytes", n)
	}
	if buf[0] != greVersion {
		t.Fatalf("unexpected version %d", buf[0])
	}
	flags = buf[1]
	nonce = binary.BigEndian.Uint32(buf[2:6])
	seq = binary.BigEndian.Uint32(buf[6:10])
	payload = buf[linkHeaderLen:n]
	return flags, nonce, seq, payload
}

// TestEncryptedLink runs sender and receiver contexts over an in-memory
// packet link: compression ahead of encryption, nonce carried in-band,
// periodic rotation mid-stream and a passphrase change adopted through
// nonce observation alone.
func TestEncryptedLink(t *testing.T) {
	loggerFactory := logging.NewDefaultLoggerFactory()
	br := test.NewBridge()
	pumpBridge(t, br)
	senderConn, receiverConn := br.GetConn0(), br.GetConn1()

	config := psk.Config{
		Passphrase:    "correct horse battery staple",
		KeySize:       256,
		KeyRotation:   4,
		LoggerFactory: loggerFactory,
	}
	sender, err := psk.New(config)
	if err != nil {
		t.Fatalf("New sender failed: %v", err)
	}
	defer sender.Destroy()
	receiver, err := psk.New(config)
	if err != nil {
		t.Fatalf("New receiver failed: %v", err)
	}
	defer receiver.Destroy()

	random := make([]byte, 512)
	if _, err := rand.Read(random); err != nil {
		t.Fatalf("failed to generate payload: %v", err)
	}
	payloads := [][]byte{
		[]byte("x"),
		bytes.Repeat([]byte("main profile media "), 150), // compressible
		random, // incompressible
		bytes.Repeat([]byte{0}, 1316),
		[]byte("tail packet after several rotations"),
		bytes.Repeat([]byte("more compressible media "), 100),
	}

	deliver := func(seq uint32, plaintext []byte) {
		t.Helper()

		body, packed := compress.Compress(plaintext)
		var flags byte
		if packed {
			flags |= flagCompressed
		}

		ct := make([]byte, len(body))
		if err := sender.Encrypt(seq, greVersion, ct, body); err != nil {
			t.Fatalf("seq %d: Encrypt failed: %v", seq, err)
		}
		sendPacket(t, senderConn, flags, sender.Nonce(), seq, ct)

		gotFlags, nonce, gotSeq, gotPayload := recvPacket(t, receiverConn)
		if gotSeq != seq {
			t.Fatalf("seq mismatch: got %d, want %d", gotSeq, seq)
		}

		out := make([]byte, len(gotPayload))
		if err := receiver.Decrypt(nonce, gotSeq, greVersion, out, gotPayload); err != nil {
			t.Fatalf("seq %d: Decrypt failed: %v", seq, err)
		}
		if gotFlags&flagCompressed != 0 {
			expanded, err := compress.Decompress(out, maxPayload)
			if err != nil {
				t.Fatalf("seq %d: Decompress failed: %v", seq, err)
			}
			out = expanded
		}
		if !bytes.Equal(out, plaintext) {
			t.Fatalf("seq %d: payload mismatch", seq)
		}
	}

	seq := uint32(0)
	for _, plaintext := range payloads {
		seq++
		deliver(seq, plaintext)
	}

	// KeyRotation is 4, so the stream above crossed at least one rotation;
	// both sides must have converged on the same key material.
	if sender.Nonce() != receiver.Nonce() {
		t.Errorf("nonces diverged after rotation: %08x != %08x", sender.Nonce(), receiver.Nonce())
	}

	// Out-of-band passphrase change on both peers. The receiver re-derives
	// purely from the next observed nonce.
	if err := sender.SetPassphrase("rotated out-of-band"); err != nil {
		t.Fatalf("sender SetPassphrase failed: %v", err)
	}
	if err := receiver.SetPassphrase("rotated out-of-band"); err != nil {
		t.Fatalf("receiver SetPassphrase failed: %v", err)
	}
	seq++
	deliver(seq, []byte("first packet under the new passphrase"))

	// Unencrypted traffic: zero nonce passes through untouched.
	plain := []byte("legacy unencrypted packet")
	sendPacket(t, senderConn, 0, 0, seq+1, plain)
	_, nonce, _, payload := recvPacket(t, receiverConn)
	out := make([]byte, len(payload))
	if err := receiver.Decrypt(nonce, seq+1, greVersion, out, payload); !errors.Is(err, psk.ErrUnencrypted) {
		t.Fatalf("expected ErrUnencrypted, got %v", err)
	}
	if !bytes.Equal(payload, plain) {
		t.Error("pass-through payload corrupted")
	}
}
