package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_CanonicalSpelling(t *testing.T) {
	doc := `{"schema_version":"evidence-manifest/v1","base_dir":".","entries":[{"path":"a.md","bytes":3,"sha256":"` + strings.Repeat("a", 64) + `"}]}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Entries) != 1 || m.Entries[0].Path != "a.md" {
		t.Errorf("Entries = %+v", m.Entries)
	}
}

func TestParse_LegacyAliases(t *testing.T) {
	// "files" and "root" are deprecated read-compatibility aliases for
	// "entries" and "base_dir".
	doc := `{"schema_version":"evidence-manifest/v1","root":"reports","files":[{"path":"a.md","bytes":3,"sha256":"` + strings.Repeat("a", 64) + `"}]}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.BaseDir != "reports" {
		t.Errorf("BaseDir = %q, want reports (from root alias)", m.BaseDir)
	}
	if len(m.Entries) != 1 {
		t.Errorf("Entries = %+v, want files alias promoted", m.Entries)
	}
}

func TestParse_CanonicalWinsOverAlias(t *testing.T) {
	doc := `{"schema_version":"evidence-manifest/v1","base_dir":".","entries":[],"files":[{"path":"x","bytes":1,"sha256":"` + strings.Repeat("b", 64) + `"}]}`
	m, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Entries) != 0 {
		t.Error("canonical entries key must win over the files alias")
	}
}

func TestParse_MissingSchemaVersion(t *testing.T) {
	if _, err := Parse([]byte(`{"entries":[]}`)); err == nil {
		t.Error("expected error for missing schema_version")
	}
}

func TestEncodeCanonical_SortedKeysTrailingNewline(t *testing.T) {
	m := &Manifest{
		SchemaVersion: SchemaVersion,
		BaseDir:       ".",
		Entries:       []Entry{},
	}
	b, err := EncodeCanonical(m)
	if err != nil {
		t.Fatalf("EncodeCanonical: %v", err)
	}
	s := string(b)
	if !strings.HasSuffix(s, "\n") {
		t.Error("canonical document must end with a newline")
	}
	if strings.Index(s, `"base_dir"`) > strings.Index(s, `"entries"`) {
		t.Error("keys must be sorted")
	}
}

func TestWriteFile_LoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	m := &Manifest{
		SchemaVersion: SchemaVersion,
		BaseDir:       ".",
		PackID:        "p1",
		CreatedAt:     "2026-08-01T00:00:00Z",
		Entries: []Entry{
			{Path: "a.md", Bytes: 3, SHA256: strings.Repeat("a", 64)},
		},
	}
	if err := WriteFile(path, m); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFile_NeverWritesLegacyKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	m := &Manifest{SchemaVersion: SchemaVersion, BaseDir: ".", Entries: []Entry{}}
	if err := WriteFile(path, m); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["files"]; ok {
		t.Error("writer must not emit the deprecated files key")
	}
	if _, ok := raw["root"]; ok {
		t.Error("writer must not emit the deprecated root key")
	}
}

func TestValidPath(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a.md", true},
		{"reports/a.md", true},
		{"", false},
		{"/abs.md", false},
		{"a/../b.md", false},
		{"./a.md", false},
		{"a//b.md", false},
		{`a\b.md`, false},
	}
	for _, tc := range tests {
		if got := validPath(tc.in); got != tc.want {
			t.Errorf("validPath(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
