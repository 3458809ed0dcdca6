// Package store persists an audit trail of validation runs. Every check of
// a manifest or pack can be recorded here so "what was validated, when, and
// did it pass" survives across sessions.
package store

// DefaultDBPath is the default relative path for the SQLite DB
// (per-project). Resolve against the project root; Open() creates the
// parent dir (e.g. .attest).
const DefaultDBPath = ".attest/attest.db"

// Run is one recorded validation outcome.
type Run struct {
	ID             int64
	StartedAt      string // RFC 3339 UTC
	Kind           string // "manifest", "pack", or "compare"
	Target         string // manifest path or comparison label
	OK             bool
	CheckedEntries int
	Errors         []string
}

// Ledger is the persistence facade for validation history. CLI and MCP
// layers use only this interface; implementation is SQLite or in-memory.
type Ledger interface {
	RecordRun(run *Run) (runID int64, err error)
	GetRun(runID int64) (*Run, error)
	// ListRuns returns the most recent runs first, at most limit
	// (limit <= 0 means all).
	ListRuns(limit int) ([]*Run, error)
	Close() error
}
