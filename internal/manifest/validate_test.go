package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildFor(t *testing.T, root string) *Manifest {
	t.Helper()
	m, err := Build(root, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestValidate_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"snapshot.md":  "hello747474",
		"summary.json": `{"ok":true}`,
	})
	m := buildFor(t, root)

	report := Validate(root, m, []string{"snapshot.md", "summary.json"})
	if !report.OK {
		t.Fatalf("round-trip validation failed: %v", report.Errors)
	}
	if report.CheckedEntries != 2 {
		t.Errorf("CheckedEntries = %d, want 2", report.CheckedEntries)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", report.Errors)
	}
}

func TestValidate_OKAgreesWithErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "x"})
	m := buildFor(t, root)

	for _, required := range [][]string{nil, {"ghost.md"}} {
		report := Validate(root, m, required)
		if report.OK != (len(report.Errors) == 0) {
			t.Errorf("ok=%v disagrees with %d errors", report.OK, len(report.Errors))
		}
	}
}

func TestValidate_TamperDetection(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"snapshot.md":  "hello747474",
		"summary.json": `{"ok":true}`,
	})
	m := buildFor(t, root)

	// Same size, different content: only the hash can catch this.
	if err := os.WriteFile(filepath.Join(root, "snapshot.md"), []byte("hello747475"), 0o644); err != nil {
		t.Fatal(err)
	}

	report := Validate(root, m, nil)
	if report.OK {
		t.Fatal("tampering not detected")
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", report.Errors)
	}
	if !strings.Contains(report.Errors[0], "sha256 mismatch for snapshot.md") {
		t.Errorf("error should name the path and kind: %q", report.Errors[0])
	}
}

func TestValidate_BytesMismatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "short"})
	m := buildFor(t, root)

	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("now much longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := Validate(root, m, nil)
	if report.OK {
		t.Fatal("size change not detected")
	}
	if !strings.Contains(report.Errors[0], "bytes mismatch for a.md") {
		t.Errorf("error = %q, want bytes mismatch", report.Errors[0])
	}
}

func TestValidate_MissingOnDisk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "x", "b.md": "y"})
	m := buildFor(t, root)

	if err := os.Remove(filepath.Join(root, "b.md")); err != nil {
		t.Fatal(err)
	}
	report := Validate(root, m, nil)
	if report.OK {
		t.Fatal("missing file not detected")
	}
	if !strings.Contains(report.Errors[0], "missing on disk: b.md") {
		t.Errorf("error = %q, want missing on disk", report.Errors[0])
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "x"})
	m := buildFor(t, root)

	report := Validate(root, m, []string{"a.md", "trend.csv"})
	if report.OK {
		t.Fatal("missing required path not detected")
	}
	if !strings.Contains(report.Errors[0], "missing required artifact in index: trend.csv") {
		t.Errorf("error = %q, want missing required artifact", report.Errors[0])
	}
}

func TestValidate_CollectsAllErrorsInOnePass(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.md": "aaaaa",
		"b.md": "bbbbb",
		"c.md": "ccccc",
	})
	m := buildFor(t, root)

	// Three independent problems: a tampered, b removed, d never indexed.
	if err := os.WriteFile(filepath.Join(root, "a.md"), []byte("AAAAA"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "b.md")); err != nil {
		t.Fatal(err)
	}

	report := Validate(root, m, []string{"d.md"})
	if len(report.Errors) != 3 {
		t.Fatalf("Errors = %v, want all three collected", report.Errors)
	}
}

func TestValidate_MalformedEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.md": "x"})
	good := buildFor(t, root).Entries[0]

	m := &Manifest{
		SchemaVersion: SchemaVersion,
		BaseDir:       ".",
		Entries: []Entry{
			{Path: "/absolute.md", Bytes: 1, SHA256: good.SHA256},
			{Path: "../escape.md", Bytes: 1, SHA256: good.SHA256},
			{Path: "a.md", Bytes: 1, SHA256: "not-hex"},
			good,
			good, // duplicate path
		},
	}
	report := Validate(root, m, nil)
	if report.OK {
		t.Fatal("malformed entries not detected")
	}
	count := 0
	for _, e := range report.Errors {
		if strings.Contains(e, "malformed entry") {
			count++
		}
	}
	if count != 4 {
		t.Errorf("malformed entry errors = %d, want 4:\n%v", count, report.Errors)
	}
}
