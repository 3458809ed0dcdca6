// attest builds and checks tamper-evident evidence artifacts for research
// pipeline runs: directory manifests, fail-closed sidecar checksums,
// relocatable evidence packs, a pack registry, and a determinism
// comparator for canonicalized reports.
//
// Usage:
//
//	attest build    --root <dir> --out <manifest>
//	attest validate --root <dir> --index <manifest> --out <report> [--require <path>]...
//	attest sidecar  write|check <artifact> [sidecar]
//	attest pack     generate|validate|validate-all ...
//	attest index    --packs-root <dir> --out <index>
//	attest compare  <baseline> <candidate> [--contract <file>]
//	attest status   --manifest <manifest>
//	attest history  [--limit <n>]
//	attest serve
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"attest/internal/config"
	"attest/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
	config    string
	ledger    string
}

// projectCfg holds the loaded project config; empty when no file is found.
var projectCfg = &config.Config{}

var rootCmd = &cobra.Command{
	Use:   "attest",
	Short: "Tamper-evident evidence packs for research pipeline runs",
	Long: "Attest produces and verifies reproducible evidence artifacts:\n" +
		"directory manifests, single-line sidecar checksums, relocatable\n" +
		"evidence packs, and byte-level determinism checks over reports.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logging.Init(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat)
		return loadProjectConfig()
	},
}

// loadProjectConfig reads --config when given, otherwise picks up an
// attest.yaml or attest.json sitting in the working directory. A missing
// implicit file is fine; a named one that fails to load is not.
func loadProjectConfig() error {
	path := rootFlags.config
	if path == "" {
		for _, candidate := range []string{"attest.yaml", "attest.yml", "attest.json"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			return nil
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return err
	}
	projectCfg = cfg
	return nil
}

// ledgerPath resolves the validation-history DB path: flag, then config.
// Empty means recording is off.
func ledgerPath() string {
	if rootFlags.ledger != "" {
		return rootFlags.ledger
	}
	return projectCfg.Ledger
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&rootFlags.config, "config", "", "Project config file (default: attest.yaml in the working directory)")
	pf.StringVar(&rootFlags.ledger, "ledger", "", "Validation-history DB path (overrides config; empty disables recording)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sidecarCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.Version = version
}

// exitError carries a specific process exit code through cobra's RunE.
// Content failures (a failing validation report, a divergence) exit 2 so
// CI can tell them apart from I/O and usage errors, which exit 1.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
