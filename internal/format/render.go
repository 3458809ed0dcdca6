package format

import (
	"fmt"
	"strings"

	"attest/internal/index"
	"attest/internal/manifest"
)

// RenderReport renders a validation report as a table plus its error list.
func RenderReport(r *manifest.Report, m Mode) string {
	tb := NewTable(m)
	tb.Header("Checked", "OK", "Errors", "Index Schema")
	tb.Row(r.CheckedEntries, BoolMark(r.OK), len(r.Errors), r.IndexSchemaVersion)
	tb.Columns(
		ColumnConfig{Number: 1, Align: AlignRight},
		ColumnConfig{Number: 3, Align: AlignRight},
	)

	var b strings.Builder
	b.WriteString(tb.String())
	b.WriteString("\n")
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "  ERROR: %s\n", e)
	}
	return b.String()
}

// RenderManifest renders manifest entries as a table.
func RenderManifest(m *manifest.Manifest, mode Mode) string {
	tb := NewTable(mode)
	tb.Header("Path", "Size", "SHA-256")
	var total int64
	for _, e := range m.Entries {
		tb.Row(e.Path, FmtBytes(e.Bytes), Truncate(e.SHA256, 19))
		total += e.Bytes
	}
	tb.Footer(fmt.Sprintf("%d files", len(m.Entries)), FmtBytes(total), "")
	tb.Columns(ColumnConfig{Number: 2, Align: AlignRight})
	return tb.String()
}

// RenderIndex renders the pack registry as a table.
func RenderIndex(idx *index.Index, mode Mode) string {
	tb := NewTable(mode)
	tb.Header("Pack ID", "Created At", "Manifest")
	for _, p := range idx.Packs {
		tb.Row(p.PackID, p.CreatedAt, p.ManifestPath)
	}
	tb.Footer(fmt.Sprintf("%d packs", idx.Count), "", "")
	return tb.String()
}
