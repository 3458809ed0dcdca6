package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/format"
	"attest/internal/logging"
	"attest/internal/manifest"
	"attest/internal/pack"
	"attest/internal/store"
)

func writeReport(path string, report *manifest.Report) error {
	if err := manifest.WriteFile(path, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// printReport prints a one-line summary, or the full table when asked.
// Errors go to stderr either way so they survive output redirection.
func printReport(cmd *cobra.Command, report *manifest.Report, table bool) {
	if table {
		fmt.Fprintln(cmd.OutOrStdout(), format.RenderReport(report, format.ASCII))
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Checked %d entr(ies), ok=%v\n", report.CheckedEntries, report.OK)
	for _, e := range report.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "ERROR: %s\n", e)
	}
}

// recordRuns appends validation outcomes to the history ledger when one is
// configured. Recording is best-effort: a broken ledger warns, it never
// turns a passing validation into a failure.
func recordRuns(runs ...*store.Run) {
	path := ledgerPath()
	if path == "" {
		return
	}
	logger := logging.New("ledger")
	l, err := store.Open(path)
	if err != nil {
		logger.Warn("ledger unavailable", "path", path, "err", err)
		return
	}
	defer l.Close()
	for _, run := range runs {
		if _, err := l.RecordRun(run); err != nil {
			logger.Warn("record run", "target", run.Target, "err", err)
		}
	}
}

// reportRun converts a validation report into its ledger row.
func reportRun(kind, target string, report *manifest.Report) *store.Run {
	return &store.Run{
		Kind:           kind,
		Target:         target,
		OK:             report.OK,
		CheckedEntries: report.CheckedEntries,
		Errors:         report.Errors,
	}
}

func renderPackSummary(reports []pack.PackReport) string {
	tb := format.NewTable(format.ASCII)
	tb.Header("Manifest", "Checked", "OK", "Errors")
	for _, pr := range reports {
		tb.Row(pr.ManifestPath, pr.Report.CheckedEntries, format.BoolMark(pr.Report.OK), len(pr.Report.Errors))
	}
	tb.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 4, Align: format.AlignRight},
	)
	return tb.String()
}
