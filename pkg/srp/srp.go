// Package srp implements the credential lookup side of the main profile
// SRP authentication handshake. Verifiers are kept in a plain text file of
// one credential per line,
//
//	username:verifier:salt:hashversion
//
// with verifier and salt in base64. A receiver loads the credential for a
// peer at handshake time and re-reads the file whenever its generation
// changes, so credentials can be rotated without a restart.
package srp

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrUserNotFound is returned when no credential line matches the
	// requested username at an acceptable hash version.
	ErrUserNotFound = errors.New("srp: user not found")

	// ErrMalformedCredential is returned by ParseCredential for lines that
	// do not carry the four expected fields.
	ErrMalformedCredential = errors.New("srp: malformed credential line")
)

// Credential is one parsed verifier file line.
type Credential struct {
	Username    string
	Verifier    []byte
	Salt        []byte
	HashVersion int
}

// ParseCredential parses a single verifier file line. Verifier and salt are
// base64; unpadded input is accepted since generator tools disagree on
// padding.
func ParseCredential(line string) (*Credential, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ":")
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: want 4 fields, got %d", ErrMalformedCredential, len(fields))
	}
	if fields[0] == "" {
		return nil, fmt.Errorf("%w: empty username", ErrMalformedCredential)
	}

	verifier, err := decodeBase64(fields[1])
	if err != nil || len(verifier) == 0 {
		return nil, fmt.Errorf("%w: bad verifier", ErrMalformedCredential)
	}
	salt, err := decodeBase64(fields[2])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrMalformedCredential)
	}
	hashVersion, err := strconv.Atoi(fields[3])
	if err != nil || hashVersion < 0 {
		return nil, fmt.Errorf("%w: bad hash version %q", ErrMalformedCredential, fields[3])
	}

	return &Credential{
		Username:    fields[0],
		Verifier:    verifier,
		Salt:        salt,
		HashVersion: hashVersion,
	}, nil
}

// LookupVerifier scans the verifier file at path for username and returns
// the matching credential with the highest hash version not above
// maxHashVersion, together with the file generation the credential was read
// from. Blank lines, comments and malformed lines are skipped so a single
// bad entry cannot lock every user out.
func LookupVerifier(path, username string, maxHashVersion int) (*Credential, uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("srp: open verifier file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("srp: stat verifier file: %w", err)
	}
	generation := generationOf(fi)

	var best *Credential
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cred, err := ParseCredential(line)
		if err != nil {
			continue
		}
		if cred.Username != username || cred.HashVersion > maxHashVersion {
			continue
		}
		if best == nil || cred.HashVersion > best.HashVersion {
			best = cred
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("srp: read verifier file: %w", err)
	}
	if best == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}
	return best, generation, nil
}

// FileGeneration returns the current generation of the verifier file.
// Callers compare it against the generation returned by LookupVerifier to
// decide whether cached credentials are stale.
func FileGeneration(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("srp: stat verifier file: %w", err)
	}
	return generationOf(fi), nil
}

// generationOf packs the modification time into a single comparable value,
// seconds in the high half and nanoseconds in the low half.
func generationOf(fi os.FileInfo) uint64 {
	mt := fi.ModTime()
	return uint64(mt.Unix())<<32 | uint64(uint32(mt.Nanosecond()))
}

func decodeBase64(s string) ([]byte, error) {
	if m := len(s) % 4; m != 0 {
		s += strings.Repeat("=", 4-m)
	}
	return base64.StdEncoding.DecodeString(s)
}
