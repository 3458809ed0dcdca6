package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// currentSchemaVersion is the target schema version for this build.
const currentSchemaVersion = schemaVersionV1

// SqlLedger implements Ledger with SQLite.
type SqlLedger struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .attest) if it does not exist.
func Open(path string) (*SqlLedger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	l := &SqlLedger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SqlLedger) migrate() error {
	var tableCount int
	err := l.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		if _, err := l.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := l.db.Exec("INSERT INTO schema_version(version) VALUES(?)", currentSchemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var v int
	err = l.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersionV1
		if _, err := l.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	if v > currentSchemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than this build supports (%d)", v, currentSchemaVersion)
	}
	return nil
}

// Close releases the underlying database handle.
func (l *SqlLedger) Close() error { return l.db.Close() }

// RecordRun inserts a run; StartedAt is stamped when empty.
func (l *SqlLedger) RecordRun(run *Run) (int64, error) {
	startedAt := run.StartedAt
	if startedAt == "" {
		startedAt = nowUTC()
	}
	errJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return 0, fmt.Errorf("encode errors: %w", err)
	}
	res, err := l.db.Exec(
		"INSERT INTO runs(started_at, kind, target, ok, checked_entries, errors) VALUES(?, ?, ?, ?, ?, ?)",
		startedAt, run.Kind, run.Target, boolInt(run.OK), run.CheckedEntries, string(errJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// GetRun fetches one run by id.
func (l *SqlLedger) GetRun(runID int64) (*Run, error) {
	row := l.db.QueryRow(
		"SELECT id, started_at, kind, target, ok, checked_entries, errors FROM runs WHERE id = ?", runID)
	return scanRun(row.Scan)
}

// ListRuns returns the most recent runs first.
func (l *SqlLedger) ListRuns(limit int) ([]*Run, error) {
	q := "SELECT id, started_at, kind, target, ok, checked_entries, errors FROM runs ORDER BY id DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func scanRun(scan func(...any) error) (*Run, error) {
	var r Run
	var ok int
	var errJSON string
	if err := scan(&r.ID, &r.StartedAt, &r.Kind, &r.Target, &ok, &r.CheckedEntries, &errJSON); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	r.OK = ok != 0
	if err := json.Unmarshal([]byte(errJSON), &r.Errors); err != nil {
		return nil, fmt.Errorf("decode errors: %w", err)
	}
	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
