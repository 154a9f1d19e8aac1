package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	action        TEXT NOT NULL DEFAULT 'query',
	table_name    TEXT NOT NULL DEFAULT '',
	query         TEXT NOT NULL,
	adapter       TEXT,
	database_name TEXT,
	executed_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms   INTEGER,
	row_count     INTEGER,
	error         TEXT NOT NULL DEFAULT ''
)`

// Entry is one executed statement.
type Entry struct {
	ID           int64     `json:"id"`
	Action       string    `json:"action"`
	Table        string    `json:"table,omitempty"`
	Query        string    `json:"query"`
	Adapter      string    `json:"adapter"`
	DatabaseName string    `json:"database_name"`
	ExecutedAt   time.Time `json:"executed_at"`
	DurationMS   int64     `json:"duration_ms"`
	RowCount     int64     `json:"row_count"`
	Error        string    `json:"error,omitempty"`
}

// Failed reports whether the statement was rejected by the database.
func (e Entry) Failed() bool { return e.Error != "" }

// Filter narrows List. Zero values match everything.
type Filter struct {
	Pattern string // SQL LIKE pattern on the statement text
	Table   string
	Action  string
	Limit   int
}

// DefaultLimit applies when Filter.Limit is not positive.
const DefaultLimit = 50

// History provides SQLite-backed statement history.
type History struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and ensures the
// schema exists. ":memory:" keeps the history for the process lifetime.
func Open(path string) (*History, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("history: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &History{db: db}, nil
}

// Add inserts a new history entry. A nil History discards it.
func (h *History) Add(ctx context.Context, e Entry) error {
	if h == nil {
		return nil
	}
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}
	if e.Action == "" {
		e.Action = "query"
	}
	_, err := h.db.ExecContext(ctx,
		`INSERT INTO history (action, table_name, query, adapter, database_name, executed_at, duration_ms, row_count, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Action, e.Table, e.Query, e.Adapter, e.DatabaseName,
		e.ExecutedAt, e.DurationMS, e.RowCount, e.Error,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	return nil
}

// List returns entries matching f, most recent first.
func (h *History) List(ctx context.Context, f Filter) ([]Entry, error) {
	if h == nil {
		return nil, nil
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	pattern := f.Pattern
	if pattern == "" {
		pattern = "%"
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, action, table_name, query, adapter, database_name, executed_at, duration_ms, row_count, error
		 FROM history
		 WHERE query LIKE ?
		   AND (? = '' OR table_name = ?)
		   AND (? = '' OR action = ?)
		 ORDER BY executed_at DESC, id DESC
		 LIMIT ?`,
		pattern, f.Table, f.Table, f.Action, f.Action, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history list: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the most recent entries, limited to limit rows.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return h.List(ctx, Filter{Limit: limit})
}

// Clear deletes all history entries.
func (h *History) Clear(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	if h == nil {
		return nil
	}
	return h.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.Table,
			&e.Query,
			&e.Adapter,
			&e.DatabaseName,
			&e.ExecutedAt,
			&e.DurationMS,
			&e.RowCount,
			&e.Error,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
