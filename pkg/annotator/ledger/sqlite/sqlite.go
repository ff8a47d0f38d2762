// Package sqlite implements ledger.Ledger on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/annotator/pkg/annotator/ids"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/ledger"
)

type sqliteLedger struct {
	db *sql.DB
}

// Open opens (or creates) a ledger database with WAL mode enabled.
func Open(ctx context.Context, path string) (ledger.Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %v: %w", path, err, internalerr.ErrResource)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %v: %w", path, err, internalerr.ErrResource)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %v: %w", path, err, internalerr.ErrResource)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init ledger schema: %v: %w", err, internalerr.ErrResource)
	}

	return &sqliteLedger{db: db}, nil
}

func (l *sqliteLedger) Close() error {
	return l.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS documents (
	source TEXT NOT NULL,
	doc_id TEXT NOT NULL,
	outcome TEXT NOT NULL,
	run_id TEXT NOT NULL,
	sentences INTEGER NOT NULL DEFAULT 0,
	message TEXT,
	updated_at TEXT NOT NULL,
	PRIMARY KEY(source, doc_id)
);

CREATE INDEX IF NOT EXISTS idx_documents_outcome ON documents(source, outcome);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (l *sqliteLedger) StartRun(ctx context.Context, source string) (ledger.Run, error) {
	run := ledger.Run{
		ID:        ids.New(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Source, run.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return ledger.Run{}, fmt.Errorf("start run: %v: %w", err, internalerr.ErrResource)
	}
	return run, nil
}

func (l *sqliteLedger) FinishRun(ctx context.Context, runID string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %v: %w", err, internalerr.ErrResource)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	return nil
}

func (l *sqliteLedger) GetRun(ctx context.Context, runID string) (ledger.Run, error) {
	var (
		run      ledger.Run
		started  string
		finished sql.NullString
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, source, started_at, finished_at FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &run.Source, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Run{}, fmt.Errorf("run %s: %w", runID, internalerr.ErrNotFound)
	}
	if err != nil {
		return ledger.Run{}, fmt.Errorf("get run: %v: %w", err, internalerr.ErrResource)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	return run, nil
}

func (l *sqliteLedger) Record(ctx context.Context, e ledger.Entry) error {
	if !e.Outcome.Valid() {
		return fmt.Errorf("outcome %q: %w", e.Outcome, internalerr.ErrInvalidInput)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now()
	}

	const stmt = `
INSERT INTO documents (source, doc_id, outcome, run_id, sentences, message, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, doc_id) DO UPDATE SET
	outcome=excluded.outcome,
	run_id=excluded.run_id,
	sentences=excluded.sentences,
	message=excluded.message,
	updated_at=excluded.updated_at;
`
	_, err := l.db.ExecContext(ctx, stmt,
		e.Source,
		e.DocumentID,
		string(e.Outcome),
		e.RunID,
		e.Sentences,
		e.Message,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record %s: %v: %w", e.DocumentID, err, internalerr.ErrResource)
	}
	return nil
}

func (l *sqliteLedger) Lookup(ctx context.Context, source, docID string) (ledger.Entry, bool, error) {
	var (
		e       ledger.Entry
		outcome string
		message sql.NullString
		updated string
	)
	err := l.db.QueryRowContext(ctx, `
SELECT source, doc_id, outcome, run_id, sentences, message, updated_at
FROM documents WHERE source = ? AND doc_id = ?`, source, docID,
	).Scan(&e.Source, &e.DocumentID, &outcome, &e.RunID, &e.Sentences, &message, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Entry{}, false, nil
	}
	if err != nil {
		return ledger.Entry{}, false, fmt.Errorf("lookup %s: %v: %w", docID, err, internalerr.ErrResource)
	}
	e.Outcome = ledger.Outcome(outcome)
	e.Message = message.String
	e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return e, true, nil
}

func (l *sqliteLedger) Counts(ctx context.Context, source string) (map[ledger.Outcome]int, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM documents WHERE source = ? GROUP BY outcome`, source)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %v: %w", err, internalerr.ErrResource)
	}
	defer rows.Close()

	counts := make(map[ledger.Outcome]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("count outcomes: %v: %w", err, internalerr.ErrResource)
		}
		counts[ledger.Outcome(outcome)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count outcomes: %v: %w", err, internalerr.ErrResource)
	}
	return counts, nil
}
