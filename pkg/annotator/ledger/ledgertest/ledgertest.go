// Package ledgertest holds behaviour tests shared by ledger implementations.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
)

// Run exercises l. The ledger must start empty.
func Run(t *testing.T, l ledger.Ledger) {
	t.Helper()
	ctx := context.Background()

	run, err := l.StartRun(ctx, "in.jsonl")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" || run.StartedAt.IsZero() {
		t.Errorf("Expected run id and start time, got %+v", run)
	}

	if _, found, err := l.Lookup(ctx, "in.jsonl", "d1"); err != nil || found {
		t.Errorf("Expected no entry before Record, found=%v err=%v", found, err)
	}

	entries := []ledger.Entry{
		{Source: "in.jsonl", DocumentID: "d1", Outcome: ledger.OutcomeFailed, RunID: run.ID, Message: "boom"},
		{Source: "in.jsonl", DocumentID: "d1", Outcome: ledger.OutcomeEmitted, RunID: run.ID, Sentences: 2},
		{Source: "in.jsonl", DocumentID: "d2", Outcome: ledger.OutcomeFailed, RunID: run.ID, Message: "bad\nline"},
		{Source: "in.jsonl", DocumentID: "", Outcome: ledger.OutcomeSuppressed, RunID: run.ID},
		{Source: "other.jsonl", DocumentID: "d1", Outcome: ledger.OutcomeFailed, RunID: run.ID},
	}
	for _, e := range entries {
		if err := l.Record(ctx, e); err != nil {
			t.Fatalf("Record(%+v): %v", e, err)
		}
	}

	e, found, err := l.Lookup(ctx, "in.jsonl", "d1")
	if err != nil || !found {
		t.Fatalf("Lookup d1: found=%v err=%v", found, err)
	}
	if e.Outcome != ledger.OutcomeEmitted || e.Sentences != 2 || e.RunID != run.ID {
		t.Errorf("Expected the later emitted entry, got %+v", e)
	}
	if e.UpdatedAt.IsZero() {
		t.Error("Expected UpdatedAt to be set")
	}

	e, _, _ = l.Lookup(ctx, "in.jsonl", "d2")
	if e.Message != "bad\nline" {
		t.Errorf("Expected message preserved, got %q", e.Message)
	}

	counts, err := l.Counts(ctx, "in.jsonl")
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[ledger.OutcomeEmitted] != 1 || counts[ledger.OutcomeFailed] != 1 || counts[ledger.OutcomeSuppressed] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}

	if err := l.Record(ctx, ledger.Entry{Source: "in.jsonl", DocumentID: "x", Outcome: "lost"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown outcome, got %v", err)
	}

	if err := l.FinishRun(ctx, run.ID); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	got, err := l.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Source != "in.jsonl" || got.FinishedAt.IsZero() {
		t.Errorf("Expected finished run for in.jsonl, got %+v", got)
	}

	if err := l.FinishRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := l.GetRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
