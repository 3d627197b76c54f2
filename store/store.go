// Package store is the persistence collaborator: a SQLite-backed
// implementation of every boundary operation the scheduling core consumes.
// Malformed stored records are never fatal; they are skipped or defaulted
// with a log line and the rest of the batch continues.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"helpline-scheduler/columns"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	display_name TEXT NOT NULL,
	position TEXT NOT NULL DEFAULT '',
	supervisor TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS shift_cells (
	employee_id INTEGER NOT NULL,
	column_key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (employee_id, column_key)
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	employee_id INTEGER NOT NULL,
	task_name TEXT NOT NULL,
	day_of_week TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	required_skill TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS day_columns (
	key TEXT PRIMARY KEY,
	display_name TEXT NOT NULL,
	subtitle TEXT NOT NULL DEFAULT '',
	visible INTEGER NOT NULL DEFAULT 1,
	sort_order INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS time_off_requests (
	id TEXT PRIMARY KEY,
	employee_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS announcements (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT 'normal',
	date TEXT NOT NULL
);
`

// dateLayout is how calendar dates are stored; no time-of-day component.
const dateLayout = "2006-01-02"

type Store struct {
	path string
	db   *sql.DB
	log  *log.Logger
}

func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, log: logger}
}

// Init opens the database, creates the schema, and seeds the seven default
// day columns on first run.
func (s *Store) Init(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	s.db = db

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return s.seedColumns(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) seedColumns(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM day_columns`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count day columns: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, col := range columns.Defaults() {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO day_columns (key, display_name, subtitle, visible, sort_order) VALUES (?, ?, ?, ?, ?)`,
			col.Key, col.DisplayName, col.Subtitle, col.Visible, col.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("failed to seed day column %s: %w", col.Key, err)
		}
	}
	return nil
}
