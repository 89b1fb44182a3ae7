// Package sqlite keeps a local history of processed analysis runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chatagent/code-analyzer/internal/usecase/work"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT    NOT NULL,
	repository     TEXT    NOT NULL,
	provider       TEXT    NOT NULL,
	mode           TEXT    NOT NULL,
	files_analyzed INTEGER NOT NULL,
	posted         INTEGER NOT NULL,
	duration_ms    INTEGER NOT NULL,
	created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Store persists run records to a sqlite database file.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening run store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing run store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) SaveRun(ctx context.Context, rec work.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, repository, provider, mode, files_analyzed, posted, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Repository, rec.Provider, rec.Mode, rec.FilesAnalyzed, rec.Posted,
		rec.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	return nil
}

// Run is a stored record with its insertion time.
type Run struct {
	work.RunRecord
	CreatedAt time.Time
}

// RecentRuns returns the newest records first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, repository, provider, mode, files_analyzed, posted, duration_ms, created_at
		 FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.Repository, &r.Provider, &r.Mode,
			&r.FilesAnalyzed, &r.Posted, &durationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
