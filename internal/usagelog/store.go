// Package usagelog persists per-run model usage entries to sqlite.
// Nothing in the pipeline reads this data back; it exists for cost
// observability.
package usagelog

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/snapatlas/enrich/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	stage         TEXT NOT NULL,
	model         TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_entries_run_id ON usage_entries(run_id);
`

// Store writes usage entries to a sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the usage database at path. Pass
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "usagelog: open database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "usagelog: apply schema")
	}
	return &Store{db: db}, nil
}

// Record inserts the run's usage entries in one transaction.
func (s *Store) Record(ctx context.Context, runID string, entries []model.UsageEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "usagelog: begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO usage_entries (run_id, stage, model, input_tokens, output_tokens, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "usagelog: prepare insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, runID, e.Stage, e.Model,
			e.InputTokens, e.OutputTokens, e.Duration.Milliseconds()); err != nil {
			return eris.Wrap(err, "usagelog: insert entry")
		}
	}

	return eris.Wrap(tx.Commit(), "usagelog: commit")
}

// Entries returns the stored entries for a run, insertion-ordered.
func (s *Store) Entries(ctx context.Context, runID string) ([]model.UsageEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, model, input_tokens, output_tokens, duration_ms
		 FROM usage_entries WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, eris.Wrap(err, "usagelog: query entries")
	}
	defer rows.Close()

	var entries []model.UsageEntry
	for rows.Next() {
		var e model.UsageEntry
		var durationMS int64
		if err := rows.Scan(&e.Stage, &e.Model, &e.InputTokens, &e.OutputTokens, &durationMS); err != nil {
			return nil, eris.Wrap(err, "usagelog: scan entry")
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "usagelog: iterate entries")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return eris.Wrap(s.db.Close(), "usagelog: close")
}
