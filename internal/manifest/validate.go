package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"attest/internal/digest"
)

// Validate re-checks root against m. Two independent checks both gate OK:
// completeness (every required path appears as a manifest entry) and
// integrity (every entry's file exists with the recorded size and a freshly
// computed sha256). All problems are accumulated into one report; nothing
// is fail-fast and no recorded hash is ever taken on trust.
func Validate(root string, m *Manifest, required []string) *Report {
	report := &Report{
		SchemaVersion:      ReportSchemaVersion,
		IndexSchemaVersion: m.SchemaVersion,
		RunDate:            m.RunDate,
		Errors:             []string{},
	}

	indexed := make(map[string]bool, len(m.Entries))
	for _, e := range m.Entries {
		indexed[e.Path] = true
	}
	for _, req := range required {
		req = filepath.ToSlash(req)
		if !indexed[req] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("missing required artifact in index: %s", req))
		}
	}

	seen := make(map[string]bool, len(m.Entries))
	for i, e := range m.Entries {
		if !validPath(e.Path) || !digest.ValidHex(e.SHA256) || e.Bytes < 0 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("malformed entry %d (%s)", i, e.Path))
			continue
		}
		if seen[e.Path] {
			report.Errors = append(report.Errors,
				fmt.Sprintf("malformed entry %d (%s): duplicate path", i, e.Path))
			continue
		}
		seen[e.Path] = true

		full := filepath.Join(root, filepath.FromSlash(e.Path))
		fi, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				report.Errors = append(report.Errors,
					fmt.Sprintf("missing on disk: %s", e.Path))
			} else {
				report.Errors = append(report.Errors,
					fmt.Sprintf("stat error for %s: %v", e.Path, err))
			}
			continue
		}
		report.CheckedEntries++
		if fi.Size() != e.Bytes {
			report.Errors = append(report.Errors,
				fmt.Sprintf("bytes mismatch for %s: recorded %d, found %d", e.Path, e.Bytes, fi.Size()))
			continue
		}
		sum, err := digest.File(full)
		if err != nil {
			report.Errors = append(report.Errors,
				fmt.Sprintf("read error for %s: %v", e.Path, err))
			continue
		}
		if sum != e.SHA256 {
			report.Errors = append(report.Errors,
				fmt.Sprintf("sha256 mismatch for %s", e.Path))
		}
	}

	report.OK = len(report.Errors) == 0
	return report
}
