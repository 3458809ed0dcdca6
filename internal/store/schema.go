package store

// schemaVersionV1 is the current ledger schema.
const schemaVersionV1 = 1

// schemaV1 holds validation runs as flat rows; the error list is stored as
// a JSON array so a row round-trips the full report.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS runs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at      TEXT NOT NULL,
	kind            TEXT NOT NULL,
	target          TEXT NOT NULL,
	ok              INTEGER NOT NULL,
	checked_entries INTEGER NOT NULL,
	errors          TEXT NOT NULL DEFAULT '[]'
);

CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
`
