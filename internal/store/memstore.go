package store

import (
	"fmt"
	"sync"
)

// MemLedger is an in-memory Ledger for tests and one-shot runs.
type MemLedger struct {
	mu   sync.Mutex
	runs []*Run
}

// NewMemLedger returns an empty in-memory ledger.
func NewMemLedger() *MemLedger { return &MemLedger{} }

func (m *MemLedger) RecordRun(run *Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	cp.ID = int64(len(m.runs) + 1)
	if cp.StartedAt == "" {
		cp.StartedAt = nowUTC()
	}
	cp.Errors = append([]string(nil), run.Errors...)
	m.runs = append(m.runs, &cp)
	return cp.ID, nil
}

func (m *MemLedger) GetRun(runID int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if runID < 1 || runID > int64(len(m.runs)) {
		return nil, fmt.Errorf("run %d not found", runID)
	}
	cp := *m.runs[runID-1]
	return &cp, nil
}

func (m *MemLedger) ListRuns(limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *m.runs[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemLedger) Close() error { return nil }
