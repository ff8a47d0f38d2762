// Package memledger is an in-memory ledger.Ledger for tests and server mode.
package memledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cognicore/annotator/pkg/annotator/ids"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
)

type key struct {
	source string
	docID  string
}

// Ledger keeps entries in maps guarded by a mutex.
type Ledger struct {
	mu      sync.RWMutex
	runs    map[string]ledger.Run
	entries map[key]ledger.Entry
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		runs:    make(map[string]ledger.Run),
		entries: make(map[key]ledger.Entry),
	}
}

// Close implements ledger.Ledger.
func (l *Ledger) Close() error { return nil }

func (l *Ledger) StartRun(ctx context.Context, source string) (ledger.Run, error) {
	run := ledger.Run{ID: ids.New(), Source: source, StartedAt: time.Now().UTC()}
	l.mu.Lock()
	l.runs[run.ID] = run
	l.mu.Unlock()
	return run, nil
}

func (l *Ledger) FinishRun(ctx context.Context, runID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[runID]
	if !ok {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	run.FinishedAt = time.Now().UTC()
	l.runs[runID] = run
	return nil
}

func (l *Ledger) GetRun(ctx context.Context, runID string) (ledger.Run, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	run, ok := l.runs[runID]
	if !ok {
		return ledger.Run{}, fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	return run, nil
}

func (l *Ledger) Record(ctx context.Context, e ledger.Entry) error {
	if !e.Outcome.Valid() {
		return fmt.Errorf("outcome %q: %w", e.Outcome, internalerr.ErrInvalidInput)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}
	l.mu.Lock()
	l.entries[key{e.Source, e.DocumentID}] = e
	l.mu.Unlock()
	return nil
}

func (l *Ledger) Lookup(ctx context.Context, source, docID string) (ledger.Entry, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[key{source, docID}]
	return e, ok, nil
}

func (l *Ledger) Counts(ctx context.Context, source string) (map[ledger.Outcome]int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	counts := make(map[ledger.Outcome]int)
	for k, e := range l.entries {
		if k.source == source {
			counts[e.Outcome]++
		}
	}
	return counts, nil
}

var _ ledger.Ledger = (*Ledger)(nil)
