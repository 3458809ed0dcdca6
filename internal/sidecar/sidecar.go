// Package sidecar writes and verifies single-line checksum companion
// files. The format is deliberately inflexible: exactly one line,
// 64 lowercase hex characters, one run of whitespace, the artifact's base
// name. Loosely formatted checksum files are the classic vector for
// hand-edited "fixes" to evidence, so any deviation is a hard failure —
// never a best-effort pass, never auto-corrected.
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"attest/internal/digest"
)

// Suffix is appended to an artifact's name to form its sidecar name.
const Suffix = ".sha256"

// linePattern is the complete grammar of a sidecar's single line.
var linePattern = regexp.MustCompile(`^[0-9a-f]{64}\s+\S+$`)

// FormatError reports a sidecar that violates the textual contract.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sidecar: %s: %s", e.Path, e.Reason)
}

// PathFor returns the sidecar path accompanying an artifact.
func PathFor(artifactPath string) string {
	return artifactPath + Suffix
}

// Write hashes the artifact and creates its sidecar alongside it. The
// sidecar is written once at evidence-generation time; any later rewrite
// invalidates trust in the artifact.
func Write(artifactPath string) (string, error) {
	sum, err := digest.File(artifactPath)
	if err != nil {
		return "", fmt.Errorf("sidecar: hash artifact: %w", err)
	}
	scPath := PathFor(artifactPath)
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(artifactPath))
	if err := os.WriteFile(scPath, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("sidecar: write %s: %w", scPath, err)
	}
	return scPath, nil
}

// Verify enforces the sidecar's textual contract against the artifact it
// claims to accompany. It deliberately does not recompute the artifact's
// hash — that is the validator's job — so it can run cheaply before any
// hashing and reject malformed evidence early.
func Verify(artifactPath, sidecarPath string) error {
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return fmt.Errorf("sidecar: read %s: %w", sidecarPath, err)
	}
	text := string(data)
	if text == "" {
		return &FormatError{Path: sidecarPath, Reason: "empty file"}
	}
	// Exactly one line, with a single trailing newline permitted.
	body := strings.TrimSuffix(text, "\n")
	if strings.ContainsAny(body, "\n\r") {
		return &FormatError{Path: sidecarPath, Reason: "must contain exactly one line"}
	}
	if !linePattern.MatchString(body) {
		return &FormatError{Path: sidecarPath, Reason: "line does not match <64 lowercase hex> <filename>"}
	}
	fields := strings.Fields(body)
	if len(fields) != 2 {
		return &FormatError{Path: sidecarPath, Reason: "line does not match <64 lowercase hex> <filename>"}
	}
	name := fields[1]
	if strings.ContainsAny(name, "/\\") {
		return &FormatError{Path: sidecarPath, Reason: "filename must be a base name, not a path"}
	}
	if want := filepath.Base(artifactPath); name != want {
		return &FormatError{Path: sidecarPath,
			Reason: fmt.Sprintf("names %q, expected %q", name, want)}
	}
	return nil
}

// Hash returns the digest recorded in a sidecar after verifying its format
// against the artifact.
func Hash(artifactPath, sidecarPath string) (string, error) {
	if err := Verify(artifactPath, sidecarPath); err != nil {
		return "", err
	}
	data, err := os.ReadFile(sidecarPath)
	if err != nil {
		return "", fmt.Errorf("sidecar: read %s: %w", sidecarPath, err)
	}
	return strings.Fields(string(data))[0], nil
}
