package pack

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"attest/internal/manifest"
)

func writeInput(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

var sampleInput = map[string]string{
	"trades.csv":         "ts,side,qty\n1,buy,10\n",
	"results/stats.json": `{"sharpe":1.3}`,
	"notes.md":           "session notes\n",
}

func TestGenerate_RoundTrip(t *testing.T) {
	input := t.TempDir()
	outRoot := t.TempDir()
	writeInput(t, input, sampleInput)

	res, err := Generate(GenerateOptions{
		InputDir: input,
		OutRoot:  outRoot,
		PackID:   "rt-1",
		RunDate:  "2026-08-30",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.PackDir != filepath.Join(outRoot, "pack-rt-1") {
		t.Errorf("pack dir = %s", res.PackDir)
	}

	m, err := manifest.Load(res.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if m.PackID != "rt-1" || m.RunDate != "2026-08-30" {
		t.Errorf("pack_id=%q run_date=%q", m.PackID, m.RunDate)
	}
	if m.BaseDir != "." {
		t.Errorf("base_dir = %q, want relative", m.BaseDir)
	}
	var paths []string
	for _, e := range m.Entries {
		paths = append(paths, e.Path)
	}
	want := []string{"notes.md", "results/stats.json", "trades.csv"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("entry paths (-want +got):\n%s", diff)
	}

	report, err := Validate(res.ManifestPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK {
		t.Errorf("fresh pack failed validation: %v", report.Errors)
	}
	if report.CheckedEntries != 3 {
		t.Errorf("checked %d entries, want 3", report.CheckedEntries)
	}
}

func TestGenerate_AssignsPackID(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, map[string]string{"a.txt": "a"})

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if res.PackID == "" {
		t.Error("expected an assigned pack id")
	}
	m, err := manifest.Load(res.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if m.PackID != res.PackID {
		t.Errorf("manifest pack_id %q != result %q", m.PackID, res.PackID)
	}
}

func TestPackIsRelocatable(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)

	baseA := t.TempDir()
	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: baseA, PackID: "move-me"})
	if err != nil {
		t.Fatal(err)
	}

	baseB := t.TempDir()
	moved := filepath.Join(baseB, "pack-move-me")
	if err := os.Rename(res.PackDir, moved); err != nil {
		t.Fatal(err)
	}

	report, err := Validate(filepath.Join(moved, ManifestName), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !report.OK {
		t.Errorf("relocated pack failed validation: %v", report.Errors)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)
	pinned := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var blobs [][]byte
	for _, out := range []string{t.TempDir(), t.TempDir()} {
		res, err := Generate(GenerateOptions{
			InputDir:      input,
			OutRoot:       out,
			PackID:        "det-1",
			RunDate:       "2026-08-30",
			Deterministic: true,
			CreatedAt:     pinned,
		})
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(res.ManifestPath)
		if err != nil {
			t.Fatal(err)
		}
		blobs = append(blobs, data)
	}
	if string(blobs[0]) != string(blobs[1]) {
		t.Error("deterministic generations produced different manifest bytes")
	}

	m, err := manifest.Parse(blobs[0])
	if err != nil {
		t.Fatal(err)
	}
	if m.CreatedAt != "2026-08-30T12:00:00Z" {
		t.Errorf("created_at = %q, want pinned timestamp", m.CreatedAt)
	}
}

func TestGenerate_ManifestExcludesItself(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, map[string]string{"a.txt": "a"})

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "self"})
	if err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Load(res.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range m.Entries {
		if e.Path == ManifestName || strings.HasSuffix(e.Path, ".sha256") {
			t.Errorf("manifest lists its own outputs: %s", e.Path)
		}
	}
}

func TestValidate_DetectsTamperedArtifact(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "tamper"})
	if err != nil {
		t.Fatal(err)
	}
	// Same length, different bytes: only the digest can catch it.
	victim := filepath.Join(res.PackDir, "notes.md")
	if err := os.WriteFile(victim, []byte("sessiom notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Validate(res.ManifestPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("tampered pack passed validation")
	}
	found := false
	for _, msg := range report.Errors {
		if strings.Contains(msg, "sha256 mismatch for notes.md") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors do not name the tampered file: %v", report.Errors)
	}
}

func TestValidate_DetectsTamperedManifest(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "mtamper"})
	if err != nil {
		t.Fatal(err)
	}
	// Rewrite the manifest without refreshing its sidecar.
	m, err := manifest.Load(res.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	m.RunDate = "2001-01-01"
	if err := manifest.WriteFile(res.ManifestPath, m); err != nil {
		t.Fatal(err)
	}

	report, err := Validate(res.ManifestPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("pack with tampered manifest passed validation")
	}
	if !strings.Contains(report.Errors[0], "does not match its sidecar") {
		t.Errorf("first error should name the sidecar mismatch: %v", report.Errors)
	}
}

func TestValidate_MissingSidecar(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "nosc"})
	if err != nil {
		t.Fatal(err)
	}
	// Deleting the sidecar and rewriting the manifest must not slip past
	// the pre-check.
	if err := os.Remove(res.SidecarPath); err != nil {
		t.Fatal(err)
	}
	m, err := manifest.Load(res.ManifestPath)
	if err != nil {
		t.Fatal(err)
	}
	m.RunDate = "2001-01-01"
	if err := manifest.WriteFile(res.ManifestPath, m); err != nil {
		t.Fatal(err)
	}

	report, err := Validate(res.ManifestPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("pack without its manifest sidecar passed validation")
	}
	if !strings.Contains(report.Errors[0], "missing sidecar for manifest.json") {
		t.Errorf("first error should name the missing sidecar: %v", report.Errors)
	}
}

func TestValidate_MalformedSidecar(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, map[string]string{"a.txt": "a"})

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "badsc"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(res.SidecarPath, []byte("not a sidecar\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Validate(res.ManifestPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("pack with malformed sidecar passed validation")
	}
}

func TestValidate_RequiredArtifacts(t *testing.T) {
	input := t.TempDir()
	writeInput(t, input, sampleInput)

	res, err := Generate(GenerateOptions{InputDir: input, OutRoot: t.TempDir(), PackID: "req"})
	if err != nil {
		t.Fatal(err)
	}

	report, err := Validate(res.ManifestPath, []string{"trades.csv", "summary.json"})
	if err != nil {
		t.Fatal(err)
	}
	if report.OK {
		t.Fatal("validation passed despite missing required artifact")
	}
	if !strings.Contains(strings.Join(report.Errors, "\n"), "summary.json") {
		t.Errorf("errors do not name the missing artifact: %v", report.Errors)
	}
}

func TestValidateAll(t *testing.T) {
	packsRoot := t.TempDir()
	for _, id := range []string{"p1", "p2", "p3"} {
		input := t.TempDir()
		writeInput(t, input, map[string]string{"data.txt": "payload " + id})
		if _, err := Generate(GenerateOptions{InputDir: input, OutRoot: packsRoot, PackID: id}); err != nil {
			t.Fatal(err)
		}
	}
	// Corrupt one of the three.
	if err := os.WriteFile(filepath.Join(packsRoot, "pack-p2", "data.txt"), []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}

	reports, err := ValidateAll(context.Background(), packsRoot, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 3 {
		t.Fatalf("got %d reports, want 3", len(reports))
	}
	for i, pr := range reports {
		wantOK := !strings.Contains(pr.ManifestPath, "pack-p2")
		if pr.Report.OK != wantOK {
			t.Errorf("report %d (%s): OK=%v, want %v", i, pr.ManifestPath, pr.Report.OK, wantOK)
		}
	}
}

func TestDiscover(t *testing.T) {
	packsRoot := t.TempDir()
	for _, id := range []string{"b", "a"} {
		input := t.TempDir()
		writeInput(t, input, map[string]string{"x.txt": id})
		if _, err := Generate(GenerateOptions{InputDir: input, OutRoot: packsRoot, PackID: id}); err != nil {
			t.Fatal(err)
		}
	}
	// A stray dir without a manifest and a stray file are both ignored.
	if err := os.MkdirAll(filepath.Join(packsRoot, "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(packsRoot, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	manifests, err := Discover(packsRoot)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(packsRoot, "pack-a", ManifestName),
		filepath.Join(packsRoot, "pack-b", ManifestName),
	}
	if diff := cmp.Diff(want, manifests); diff != "" {
		t.Errorf("discovered manifests (-want +got):\n%s", diff)
	}
}
