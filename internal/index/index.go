// Package index aggregates many evidence packs into one deterministically
// ordered registry. Aggregation is a pure pass over the packs root: read,
// sort, write once — re-running over an unchanged pack set produces
// byte-identical output.
package index

import (
	"fmt"
	"path/filepath"
	"sort"

	"attest/internal/manifest"
	"attest/internal/pack"
)

// SchemaVersion tags index documents written by this package.
const SchemaVersion = "evidence-index/v1"

// PackRef is one registered pack. ManifestPath is relative to the packs
// root so the registry relocates with the packs it describes.
type PackRef struct {
	PackID       string `json:"pack_id"`
	CreatedAt    string `json:"created_at"`
	ManifestPath string `json:"manifest_path"`
}

// Index is the combined registry. Count always equals len(Packs).
type Index struct {
	SchemaVersion string    `json:"schema_version"`
	Count         int       `json:"count"`
	Packs         []PackRef `json:"packs"`
}

// Update scans packsRoot for pack manifests and writes the combined index
// to outPath. Packs sort by created_at ascending, tie-broken by pack_id
// descending, so repeated runs over the same set are byte-identical.
func Update(packsRoot, outPath string) (*Index, error) {
	manifests, err := pack.Discover(packsRoot)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	packs := []PackRef{}
	for _, mp := range manifests {
		m, err := manifest.Load(mp)
		if err != nil {
			return nil, fmt.Errorf("index: %w", err)
		}
		rel, err := filepath.Rel(packsRoot, mp)
		if err != nil {
			return nil, fmt.Errorf("index: relativize %s: %w", mp, err)
		}
		packs = append(packs, PackRef{
			PackID:       m.PackID,
			CreatedAt:    m.CreatedAt,
			ManifestPath: filepath.ToSlash(rel),
		})
	}

	sort.Slice(packs, func(i, j int) bool {
		if packs[i].CreatedAt != packs[j].CreatedAt {
			return packs[i].CreatedAt < packs[j].CreatedAt
		}
		return packs[i].PackID > packs[j].PackID
	})

	idx := &Index{
		SchemaVersion: SchemaVersion,
		Count:         len(packs),
		Packs:         packs,
	}
	if err := manifest.WriteFile(outPath, idx); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return idx, nil
}
