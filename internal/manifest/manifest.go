// Package manifest builds and validates directory-tree manifests: sorted
// lists of (path, bytes, sha256) entries describing a tree's expected
// content. Building is read-only; validation recomputes every hash from
// disk and never trusts a recorded value except for comparison.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	// SchemaVersion tags manifests written by this package.
	SchemaVersion = "evidence-manifest/v1"
	// ReportSchemaVersion tags validation reports.
	ReportSchemaVersion = "validation-report/v1"
)

// Entry records one file's captured state. Path is tree-relative with
// forward slashes, never starting with "/".
type Entry struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
}

// Manifest is the on-disk index of a directory tree. BaseDir is stored
// relative (usually ".") so the tree stays relocatable; absolute paths
// anywhere in the document are a bug, not a cosmetic issue.
type Manifest struct {
	SchemaVersion string  `json:"schema_version"`
	BaseDir       string  `json:"base_dir"`
	PackID        string  `json:"pack_id,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	RunDate       string  `json:"run_date,omitempty"`
	GeneratedAt   string  `json:"generated_at,omitempty"`
	Entries       []Entry `json:"entries"`
}

// Report is the outcome of validating a tree against a manifest. OK and an
// empty Errors list always agree; the validator collects every problem in
// one pass rather than failing fast.
type Report struct {
	SchemaVersion      string   `json:"schema_version"`
	IndexSchemaVersion string   `json:"index_schema_version"`
	RunDate            string   `json:"run_date,omitempty"`
	CheckedEntries     int      `json:"checked_entries"`
	OK                 bool     `json:"ok"`
	Errors             []string `json:"errors"`
}

// manifestDoc accepts the legacy spellings some producers still emit:
// "files" for "entries" and "root" for "base_dir". Writers always emit the
// canonical names.
type manifestDoc struct {
	Manifest
	Files []Entry `json:"files,omitempty"`
	Root  string  `json:"root,omitempty"`
}

// Load reads and parses a manifest file, normalizing legacy key spellings.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes, accepting "files" and "root" as deprecated
// aliases for "entries" and "base_dir".
func Parse(data []byte) (*Manifest, error) {
	var doc manifestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	m := doc.Manifest
	if m.Entries == nil && doc.Files != nil {
		m.Entries = doc.Files
	}
	if m.BaseDir == "" && doc.Root != "" {
		m.BaseDir = doc.Root
	}
	if m.SchemaVersion == "" {
		return nil, fmt.Errorf("manifest: parse: missing schema_version")
	}
	return &m, nil
}

// EncodeCanonical renders any document as indented JSON with sorted keys
// and a trailing newline, the fixed on-disk form for all evidence
// documents.
func EncodeCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return append(out, '\n'), nil
}

// WriteFile writes v in the canonical on-disk form.
func WriteFile(path string, v any) error {
	data, err := EncodeCanonical(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// sortEntries orders entries by path, the manifest's determinism invariant.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
}

// validPath reports whether p is an acceptable entry path: relative,
// forward-slash separated, no parent traversal.
func validPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
