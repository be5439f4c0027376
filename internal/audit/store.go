// Package audit keeps an operational log of completed request pipelines in
// a local SQLite database. It records what ran and how it ended; the
// conversation itself is never persisted.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_kind TEXT NOT NULL,
    operation TEXT NOT NULL,
    model TEXT NOT NULL,
    disposition TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
CREATE INDEX IF NOT EXISTS idx_requests_task_kind ON requests(task_kind);
`

// Entry is one completed pipeline.
type Entry struct {
	ID          int64
	TaskKind    string
	Operation   string // create | refine | chat
	Model       string // last model attempted
	Disposition string // ok | quota | auth | empty | fatal
	DurationMS  int64
	CreatedAt   time.Time
}

// Summary aggregates the log.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

type Store struct {
	db *sql.DB
}

func NewStore() (*Store, error) {
	dbPath, err := defaultDBPath()
	if err != nil {
		return nil, err
	}
	return NewStoreWithPath(dbPath)
}

func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".logoforge", "audit.db"), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, entry *Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (task_kind, operation, model, disposition, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TaskKind, entry.Operation, entry.Model, entry.Disposition,
		entry.DurationMS, entry.CreatedAt)
	if err != nil {
		return err
	}
	entry.ID, _ = res.LastInsertId()
	return nil
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_kind, operation, model, disposition, duration_ms, created_at
		 FROM requests ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		if err := rows.Scan(&entry.ID, &entry.TaskKind, &entry.Operation, &entry.Model,
			&entry.Disposition, &entry.DurationMS, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN disposition = 'ok' THEN 1 ELSE 0 END), 0)
		 FROM requests`)

	var summary Summary
	if err := row.Scan(&summary.Total, &summary.Succeeded); err != nil {
		return nil, err
	}
	summary.Failed = summary.Total - summary.Succeeded
	return &summary, nil
}
