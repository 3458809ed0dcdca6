package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attest/internal/format"
	"attest/internal/manifest"
	"attest/internal/sidecar"
)

var statusFlags struct {
	manifestPath string
	markdown     bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a manifest's contents and sidecar state",
	RunE:  runStatus,
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusFlags.manifestPath, "manifest", "", "Manifest path (required)")
	f.BoolVar(&statusFlags.markdown, "markdown", false, "Render as Markdown instead of an ASCII table")

	_ = statusCmd.MarkFlagRequired("manifest")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	m, err := manifest.Load(statusFlags.manifestPath)
	if err != nil {
		return err
	}

	mode := format.ASCII
	if statusFlags.markdown {
		mode = format.Markdown
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Schema:  %s\n", m.SchemaVersion)
	if m.PackID != "" {
		fmt.Fprintf(out, "Pack:    %s\n", m.PackID)
	}
	if m.CreatedAt != "" {
		fmt.Fprintf(out, "Created: %s\n", m.CreatedAt)
	}
	fmt.Fprintln(out, format.RenderManifest(m, mode))

	scPath := sidecar.PathFor(statusFlags.manifestPath)
	if _, err := os.Stat(scPath); err != nil {
		fmt.Fprintln(out, "Sidecar: none")
		return nil
	}
	if err := sidecar.Verify(statusFlags.manifestPath, scPath); err != nil {
		fmt.Fprintf(out, "Sidecar: MALFORMED (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "Sidecar: %s (format ok)\n", scPath)
	return nil
}
