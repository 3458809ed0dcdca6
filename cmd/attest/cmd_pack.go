package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"attest/internal/logging"
	"attest/internal/pack"
	"attest/internal/store"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Generate and validate relocatable evidence packs",
}

var packGenerateFlags struct {
	input         string
	outRoot       string
	packID        string
	runDate       string
	deterministic bool
	createdAt     string
}

var packGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Collect an input tree into a self-contained evidence pack",
	Long: `Copy the input tree under <out-root>/pack-<id> and write a manifest
whose paths are all relative to the pack root, plus a sidecar binding the
manifest by name. The pack can be moved to another machine or path and
still validate. With --deterministic, timestamps are pinned to --created-at
so identical inputs produce byte-identical manifests.`,
	RunE: runPackGenerate,
}

var packValidateFlags struct {
	manifestPath string
	out          string
	require      []string
	table        bool
}

var packValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-validate an evidence pack against its manifest",
	RunE:  runPackValidate,
}

var packValidateAllFlags struct {
	packsRoot string
	limit     int
	table     bool
}

var packValidateAllCmd = &cobra.Command{
	Use:   "validate-all",
	Short: "Validate every pack under a packs root",
	Long: `Validate each pack found under the packs root. Packs occupy disjoint
subtrees, so validations run concurrently. Exits 2 if any pack fails.`,
	RunE: runPackValidateAll,
}

func init() {
	gf := packGenerateCmd.Flags()
	gf.StringVar(&packGenerateFlags.input, "input", "", "Input directory to capture (required)")
	gf.StringVar(&packGenerateFlags.outRoot, "out-root", "", "Directory receiving the pack (required)")
	gf.StringVar(&packGenerateFlags.packID, "pack-id", "", "Pack identifier (default: random UUID)")
	gf.StringVar(&packGenerateFlags.runDate, "run-date", "", "Run date recorded in the manifest")
	gf.BoolVar(&packGenerateFlags.deterministic, "deterministic", false, "Pin timestamps to --created-at for byte-identical output")
	gf.StringVar(&packGenerateFlags.createdAt, "created-at", "", "Pinned RFC3339 timestamp for deterministic mode")
	_ = packGenerateCmd.MarkFlagRequired("input")
	_ = packGenerateCmd.MarkFlagRequired("out-root")

	vf := packValidateCmd.Flags()
	vf.StringVar(&packValidateFlags.manifestPath, "manifest", "", "Pack manifest path (required)")
	vf.StringVarP(&packValidateFlags.out, "out", "o", "", "Report output path (optional)")
	vf.StringArrayVar(&packValidateFlags.require, "require", nil, "Relative path that must be present in the manifest (repeatable)")
	vf.BoolVar(&packValidateFlags.table, "table", false, "Print the report as a table")
	_ = packValidateCmd.MarkFlagRequired("manifest")

	af := packValidateAllCmd.Flags()
	af.StringVar(&packValidateAllFlags.packsRoot, "packs-root", "", "Directory containing packs (default: config packs_root)")
	af.IntVar(&packValidateAllFlags.limit, "limit", 4, "Max concurrent pack validations (0 = unbounded)")
	af.BoolVar(&packValidateAllFlags.table, "table", false, "Print a summary table")

	packCmd.AddCommand(packGenerateCmd)
	packCmd.AddCommand(packValidateCmd)
	packCmd.AddCommand(packValidateAllCmd)
}

func runPackGenerate(cmd *cobra.Command, _ []string) error {
	logger := logging.New("pack")

	var createdAt time.Time
	if packGenerateFlags.deterministic {
		if packGenerateFlags.createdAt == "" {
			return fmt.Errorf("pack generate: --deterministic requires --created-at")
		}
		t, err := time.Parse(time.RFC3339, packGenerateFlags.createdAt)
		if err != nil {
			return fmt.Errorf("pack generate: parse --created-at: %w", err)
		}
		createdAt = t
	}

	res, err := pack.Generate(pack.GenerateOptions{
		InputDir:      packGenerateFlags.input,
		OutRoot:       packGenerateFlags.outRoot,
		PackID:        packGenerateFlags.packID,
		RunDate:       packGenerateFlags.runDate,
		Deterministic: packGenerateFlags.deterministic,
		CreatedAt:     createdAt,
	})
	if err != nil {
		return err
	}

	logger.Info("pack generated",
		"pack_id", res.PackID,
		"dir", res.PackDir,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Pack: %s\nManifest: %s\nSidecar: %s\n",
		res.PackDir, res.ManifestPath, res.SidecarPath)
	return nil
}

func runPackValidate(cmd *cobra.Command, _ []string) error {
	required := packValidateFlags.require
	if len(required) == 0 {
		required = projectCfg.Require
	}
	report, err := pack.Validate(packValidateFlags.manifestPath, required)
	if err != nil {
		return err
	}
	if packValidateFlags.out != "" {
		if err := writeReport(packValidateFlags.out, report); err != nil {
			return err
		}
	}
	printReport(cmd, report, packValidateFlags.table)
	recordRuns(reportRun("pack", packValidateFlags.manifestPath, report))
	if !report.OK {
		return &exitError{code: 2, msg: fmt.Sprintf("pack validation failed: %d error(s)", len(report.Errors))}
	}
	return nil
}

func runPackValidateAll(cmd *cobra.Command, _ []string) error {
	logger := logging.New("pack")

	packsRoot := packValidateAllFlags.packsRoot
	if packsRoot == "" {
		packsRoot = projectCfg.PacksRoot
	}
	if packsRoot == "" {
		return fmt.Errorf("pack validate-all: --packs-root is required (or set packs_root in the config)")
	}
	reports, err := pack.ValidateAll(cmd.Context(), packsRoot, packValidateAllFlags.limit)
	if err != nil {
		return err
	}

	failed := 0
	runs := make([]*store.Run, 0, len(reports))
	for _, pr := range reports {
		runs = append(runs, reportRun("pack", pr.ManifestPath, pr.Report))
		if !pr.Report.OK {
			failed++
			for _, e := range pr.Report.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", pr.ManifestPath, e)
			}
		}
	}
	recordRuns(runs...)
	if packValidateAllFlags.table {
		fmt.Fprintln(cmd.OutOrStdout(), renderPackSummary(reports))
	}
	logger.Info("packs validated",
		"total", len(reports),
		"failed", failed,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Validated %d pack(s), %d failed\n", len(reports), failed)
	if failed > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d of %d pack(s) failed validation", failed, len(reports))}
	}
	return nil
}
