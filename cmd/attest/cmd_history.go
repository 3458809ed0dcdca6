package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/format"
	"attest/internal/store"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded validation runs",
	Long: `List validation outcomes recorded in the history ledger, newest
first. Recording happens whenever a ledger path is configured (--ledger or
the config's ledger key) during validate, pack validate, and compare.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "Max runs to show (0 = all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	path := ledgerPath()
	if path == "" {
		return fmt.Errorf("history: no ledger configured (use --ledger or set ledger in the config)")
	}
	l, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	defer l.Close()

	runs, err := l.ListRuns(historyFlags.limit)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	tb := format.NewTable(format.ASCII)
	tb.Header("ID", "Started", "Kind", "Target", "OK", "Checked", "Errors")
	for _, r := range runs {
		tb.Row(r.ID, r.StartedAt, r.Kind, r.Target, format.BoolMark(r.OK), r.CheckedEntries, len(r.Errors))
	}
	tb.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignRight},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
		format.ColumnConfig{Number: 7, Align: format.AlignRight},
	)
	fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return nil
}
