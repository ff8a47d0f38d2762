// Package ledger records the outcome of every document so that an
// interrupted batch can resume without re-emitting documents.
package ledger

import (
	"context"
	"time"
)

// Outcome is the terminal state of one document.
type Outcome string

const (
	OutcomeEmitted    Outcome = "emitted"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuppressed Outcome = "suppressed"
)

// Entry is the latest outcome of a document from a given source.
type Entry struct {
	Source     string
	DocumentID string
	Outcome    Outcome
	RunID      string
	Sentences  int
	Message    string
	UpdatedAt  time.Time
}

// Run describes one batch invocation.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// Ledger persists document outcomes keyed by (source, document id).
// Record overwrites the previous entry for the same key.
type Ledger interface {
	Close() error

	StartRun(ctx context.Context, source string) (Run, error)
	FinishRun(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (Run, error)

	Record(ctx context.Context, e Entry) error
	Lookup(ctx context.Context, source, docID string) (Entry, bool, error)
	Counts(ctx context.Context, source string) (map[Outcome]int, error)
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeEmitted, OutcomeFailed, OutcomeSuppressed:
		return true
	}
	return false
}
