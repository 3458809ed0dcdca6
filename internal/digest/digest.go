// Package digest computes SHA-256 content hashes for evidence artifacts.
// File hashing streams through a fixed-size buffer so memory stays bounded
// regardless of artifact size.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
)

// copyBufSize bounds per-file memory during hashing.
const copyBufSize = 256 * 1024

// hexPattern matches a well-formed digest: exactly 64 lowercase hex chars.
var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// File returns the lowercase-hex SHA-256 of the file's raw bytes.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("digest: open %s: %w", path, err)
	}
	defer f.Close()
	sum, err := Reader(f)
	if err != nil {
		return "", fmt.Errorf("digest: read %s: %w", path, err)
	}
	return sum, nil
}

// Reader hashes r to EOF through a bounded buffer.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, copyBufSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Bytes returns the lowercase-hex SHA-256 of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// String returns the lowercase-hex SHA-256 of s.
func String(s string) string {
	return Bytes([]byte(s))
}

// ValidHex reports whether s is a well-formed lowercase-hex SHA-256 digest.
func ValidHex(s string) bool {
	return hexPattern.MatchString(s)
}
