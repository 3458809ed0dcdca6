package config

// Config is the optional per-project file (attest.yaml or attest.json)
// carrying defaults that would otherwise repeat on every invocation.
// Flags always win over file values.
type Config struct {
	// PacksRoot is the default directory holding generated packs.
	PacksRoot string `json:"packs_root,omitempty" yaml:"packs_root,omitempty"`
	// Require lists artifact paths every validated manifest must contain.
	Require []string `json:"require,omitempty" yaml:"require,omitempty"`
	// Extensions is the build safelist; empty means capture every file.
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	// Exclude lists tree-relative paths the builder skips.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
	// Contract is the path of the default determinism contract.
	Contract string `json:"contract,omitempty" yaml:"contract,omitempty"`
	// Ledger is the path of the validation-history database; empty
	// disables recording.
	Ledger string `json:"ledger,omitempty" yaml:"ledger,omitempty"`
}
