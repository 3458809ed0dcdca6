package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attest/internal/canonical"
	"attest/internal/manifest"
	"attest/internal/store"
)

var compareFlags struct {
	contractPath string
	out          string
}

var compareCmd = &cobra.Command{
	Use:   "compare <baseline> <candidate>",
	Short: "Compare two reports under a determinism contract",
	Long: `Canonicalize both reports under the same contract and report the
first path at which they differ — one actionable discrepancy, not a full
diff. Volatile fields declared by the contract (run IDs, timestamps) are
excluded before comparison. Exits 0 on a match, 2 on divergence.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareFlags.contractPath, "contract", "", "Determinism contract file (YAML or JSON)")
	f.StringVarP(&compareFlags.out, "out", "o", "", "Write the comparison result as JSON")
}

func runCompare(cmd *cobra.Command, args []string) error {
	contractPath := compareFlags.contractPath
	if contractPath == "" {
		contractPath = projectCfg.Contract
	}
	var contract *canonical.Contract
	if contractPath != "" {
		c, err := canonical.LoadContract(contractPath)
		if err != nil {
			return fmt.Errorf("compare: %w", err)
		}
		contract = c
	}

	baseline, err := loadDoc(args[0])
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	candidate, err := loadDoc(args[1])
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	res, err := canonical.Compare(baseline, candidate, contract)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	if compareFlags.out != "" {
		if err := manifest.WriteFile(compareFlags.out, res); err != nil {
			return fmt.Errorf("compare: %w", err)
		}
	}

	run := &store.Run{
		Kind:   "compare",
		Target: args[0] + " vs " + args[1],
		OK:     res.Match,
	}
	if !res.Match {
		run.Errors = []string{fmt.Sprintf("diverged at %s", res.Path)}
	}
	recordRuns(run)

	if res.Match {
		fmt.Fprintln(cmd.OutOrStdout(), "MATCH")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "DIVERGED at %s\n  baseline:  %v\n  candidate: %v\n",
		res.Path, res.Baseline, res.Candidate)
	return &exitError{code: 2, msg: fmt.Sprintf("reports diverge at %s", res.Path)}
}

func loadDoc(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
