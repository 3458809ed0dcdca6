package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"attest/internal/digest"
	"attest/internal/manifest"
	"attest/internal/sidecar"
)

// Validate re-checks a pack against its manifest, rooted at the manifest's
// declared base. The manifest's own sidecar is checked first — presence,
// format, then a recomputed digest of the manifest file — so a tampered
// manifest is rejected before any entry hashing runs. Generation always
// writes the sidecar, so a pack without one has lost evidence and fails.
func Validate(manifestPath string, required []string) (*manifest.Report, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	root := filepath.Join(filepath.Dir(manifestPath), filepath.FromSlash(m.BaseDir))

	var preErrors []string
	scPath := sidecar.PathFor(manifestPath)
	if _, statErr := os.Stat(scPath); statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("pack: stat sidecar: %w", statErr)
		}
		preErrors = append(preErrors,
			fmt.Sprintf("missing sidecar for %s", filepath.Base(manifestPath)))
	} else {
		recorded, scErr := sidecar.Hash(manifestPath, scPath)
		if scErr != nil {
			preErrors = append(preErrors, scErr.Error())
		} else {
			sum, hashErr := digest.File(manifestPath)
			if hashErr != nil {
				return nil, fmt.Errorf("pack: %w", hashErr)
			}
			if sum != recorded {
				preErrors = append(preErrors,
					fmt.Sprintf("sha256 mismatch for %s: manifest does not match its sidecar", filepath.Base(manifestPath)))
			}
		}
	}

	report := manifest.Validate(root, m, required)
	if len(preErrors) > 0 {
		report.Errors = append(preErrors, report.Errors...)
		report.OK = false
	}
	return report, nil
}

// PackReport pairs a validated manifest path with its report.
type PackReport struct {
	ManifestPath string
	Report       *manifest.Report
}

// ValidateAll validates every pack found under packsRoot. Packs live in
// disjoint subtrees, so validations run concurrently, bounded by limit
// (limit <= 0 means no bound). Results come back sorted by manifest path
// regardless of completion order.
func ValidateAll(ctx context.Context, packsRoot string, limit int) ([]PackReport, error) {
	manifests, err := Discover(packsRoot)
	if err != nil {
		return nil, err
	}

	reports := make([]PackReport, len(manifests))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, mp := range manifests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := Validate(mp, nil)
			if err != nil {
				return err
			}
			reports[i] = PackReport{ManifestPath: mp, Report: r}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Discover returns the manifest paths of every pack under packsRoot,
// sorted for deterministic processing order.
func Discover(packsRoot string) ([]string, error) {
	dirEntries, err := os.ReadDir(packsRoot)
	if err != nil {
		return nil, fmt.Errorf("pack: read packs root: %w", err)
	}
	var manifests []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		mp := filepath.Join(packsRoot, de.Name(), ManifestName)
		if _, err := os.Stat(mp); err == nil {
			manifests = append(manifests, mp)
		}
	}
	sort.Strings(manifests)
	return manifests, nil
}
