package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"attest/internal/sidecar"
)

var sidecarCmd = &cobra.Command{
	Use:   "sidecar",
	Short: "Write or check single-line .sha256 sidecar files",
}

var sidecarWriteCmd = &cobra.Command{
	Use:   "write <artifact>",
	Short: "Hash an artifact and write its sidecar alongside it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scPath, err := sidecar.Write(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sidecar: %s\n", scPath)
		return nil
	},
}

var sidecarCheckCmd = &cobra.Command{
	Use:   "check <artifact> [sidecar]",
	Short: "Check a sidecar's textual contract against its artifact",
	Long: `Enforce the sidecar format: exactly one line of 64 lowercase hex
characters, whitespace, and the artifact's base name. Any deviation fails;
the artifact's hash is not recomputed here (use 'attest validate' for
that). Exits 2 on a format violation.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		artifact := args[0]
		scPath := sidecar.PathFor(artifact)
		if len(args) == 2 {
			scPath = args[1]
		}
		if err := sidecar.Verify(artifact, scPath); err != nil {
			return &exitError{code: 2, msg: err.Error()}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", scPath)
		return nil
	},
}

func init() {
	sidecarCmd.AddCommand(sidecarWriteCmd)
	sidecarCmd.AddCommand(sidecarCheckCmd)
}
