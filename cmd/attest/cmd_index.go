package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/format"
	"attest/internal/index"
	"attest/internal/logging"
)

var indexFlags struct {
	packsRoot string
	out       string
	table     bool
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the combined pack registry",
	Long: `Scan the packs root for pack manifests and write a combined index
sorted by (created_at ascending, pack_id descending). Re-running over an
unchanged pack set produces byte-identical output.`,
	RunE: runIndex,
}

func init() {
	f := indexCmd.Flags()
	f.StringVar(&indexFlags.packsRoot, "packs-root", "", "Directory containing packs (default: config packs_root)")
	f.StringVarP(&indexFlags.out, "out", "o", "", "Index output path (required)")
	f.BoolVar(&indexFlags.table, "table", false, "Print the index as a table")

	_ = indexCmd.MarkFlagRequired("out")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	packsRoot := indexFlags.packsRoot
	if packsRoot == "" {
		packsRoot = projectCfg.PacksRoot
	}
	if packsRoot == "" {
		return fmt.Errorf("index: --packs-root is required (or set packs_root in the config)")
	}
	idx, err := index.Update(packsRoot, indexFlags.out)
	if err != nil {
		return err
	}
	logging.New("index").Info("index written",
		"out", indexFlags.out,
		"packs", idx.Count,
	)
	if indexFlags.table {
		fmt.Fprintln(cmd.OutOrStdout(), format.RenderIndex(idx, format.ASCII))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Index: %s (%d packs)\n", indexFlags.out, idx.Count)
	return nil
}
