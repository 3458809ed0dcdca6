// Package pack implements the evidence pack lifecycle: collecting an input
// tree into a self-contained, relocatable directory with a manifest proving
// exactly what was captured, and re-validating that directory later.
package pack

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"attest/internal/manifest"
	"attest/internal/sidecar"
)

// ManifestName is the manifest file written at each pack root.
const ManifestName = "manifest.json"

// GenerateOptions configures pack generation.
type GenerateOptions struct {
	// InputDir is the tree to capture.
	InputDir string
	// OutRoot receives the pack directory.
	OutRoot string
	// PackID names the pack; a random UUID is assigned when empty.
	PackID string
	// RunDate is recorded verbatim when non-empty.
	RunDate string
	// Deterministic pins created_at/generated_at to CreatedAt instead of
	// wall-clock time, so identical inputs yield byte-identical manifests.
	Deterministic bool
	// CreatedAt is the pinned timestamp for deterministic mode.
	CreatedAt time.Time
}

// GenerateResult reports where a generated pack landed.
type GenerateResult struct {
	PackID       string
	PackDir      string
	ManifestPath string
	SidecarPath  string
}

// Generate copies InputDir under OutRoot/pack-<id>, builds a manifest whose
// base_dir and entry paths are relative to the pack root, and writes the
// manifest with its sidecar. Nothing in the written documents may carry an
// absolute path: a pack built on one machine must validate unchanged on
// another.
func Generate(opts GenerateOptions) (*GenerateResult, error) {
	if opts.InputDir == "" || opts.OutRoot == "" {
		return nil, fmt.Errorf("pack: input dir and out root are required")
	}
	packID := opts.PackID
	if packID == "" {
		packID = uuid.NewString()
	}

	packDir := filepath.Join(opts.OutRoot, "pack-"+packID)
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		return nil, fmt.Errorf("pack: create pack dir: %w", err)
	}
	if err := copyTree(opts.InputDir, packDir); err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	if opts.Deterministic {
		createdAt = opts.CreatedAt.UTC()
	}
	stamp := createdAt.Format(time.RFC3339)

	m, err := manifest.Build(packDir, manifest.BuildOptions{
		RunDate:     opts.RunDate,
		GeneratedAt: stamp,
		Exclude:     []string{ManifestName, ManifestName + sidecar.Suffix},
	})
	if err != nil {
		return nil, fmt.Errorf("pack: build manifest: %w", err)
	}
	m.PackID = packID
	m.CreatedAt = stamp

	manifestPath := filepath.Join(packDir, ManifestName)
	if err := manifest.WriteFile(manifestPath, m); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	scPath, err := sidecar.Write(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}

	return &GenerateResult{
		PackID:       packID,
		PackDir:      packDir,
		ManifestPath: manifestPath,
		SidecarPath:  scPath,
	}, nil
}

// copyTree copies every regular file under src into dst, preserving the
// relative layout. Symlinks and other irregular files are skipped.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("pack: walk input: %w", err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("pack: open %s: %w", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("pack: create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("pack: copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("pack: close %s: %w", dst, err)
	}
	return nil
}
