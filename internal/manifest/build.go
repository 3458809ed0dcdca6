package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"attest/internal/digest"
)

// BuildOptions configures a manifest build. The zero value indexes every
// regular file under the root.
type BuildOptions struct {
	// RunDate and GeneratedAt are recorded verbatim when non-empty.
	RunDate     string
	GeneratedAt string
	// Extensions, when non-empty, restricts indexing to files with one of
	// these extensions (leading dot, lowercase), the report-indexer mode.
	Extensions []string
	// Exclude lists tree-relative paths to skip, typically the manifest's
	// own output files so it never references itself.
	Exclude []string
}

// Build walks root and returns a manifest of every eligible regular file,
// entries sorted by relative path. The walk is read-only. A file that
// disappears between listing and hashing is a hard error: a manifest
// claiming coverage must reflect what it actually hashed.
func Build(root string, opts BuildOptions) (*Manifest, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("manifest: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("manifest: root %s is not a directory", root)
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, p := range opts.Exclude {
		exclude[filepath.ToSlash(p)] = true
	}

	entries := []Entry{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if exclude[rel] {
			return nil
		}
		if !extensionAllowed(rel, opts.Extensions) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		sum, err := digest.File(path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", rel, err)
		}
		entries = append(entries, Entry{Path: rel, Bytes: fi.Size(), SHA256: sum})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: walk %s: %w", root, err)
	}

	sortEntries(entries)
	return &Manifest{
		SchemaVersion: SchemaVersion,
		BaseDir:       ".",
		RunDate:       opts.RunDate,
		GeneratedAt:   opts.GeneratedAt,
		Entries:       entries,
	}, nil
}

func extensionAllowed(rel string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	got := strings.ToLower(filepath.Ext(rel))
	for _, e := range exts {
		if got == strings.ToLower(e) {
			return true
		}
	}
	return false
}
