package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/recipebox/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS summaries (
    key            TEXT PRIMARY KEY,
    title          TEXT NOT NULL DEFAULT '',
    generated_text TEXT NOT NULL,
    saved_at       TEXT NOT NULL
);
`

// SQLite is a Store backed by a local SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open", fmt.Errorf("open database: %w", err))
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, unavailable("open", fmt.Errorf("set busy timeout: %w", err))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, unavailable("open", fmt.Errorf("initialize schema: %w", err))
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(ctx context.Context, key string, sum *models.StoredSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (key, title, generated_text, saved_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			title = excluded.title,
			generated_text = excluded.generated_text,
			saved_at = excluded.saved_at
	`, key, sum.Title, sum.GeneratedText, formatTime(sum.SavedAt))
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, key string) (*models.StoredSummary, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, title, generated_text, saved_at FROM summaries WHERE key = ?`, key)
	sum, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	return sum, true, nil
}

func (s *SQLite) List(ctx context.Context) (map[string]*models.StoredSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, title, generated_text, saved_at FROM summaries`)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	out := make(map[string]*models.StoredSummary)
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, unavailable("list", err)
		}
		out[sum.Key] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE key = ?`, key); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*models.StoredSummary, error) {
	var (
		sum     models.StoredSummary
		savedAt string
	)
	if err := sc.Scan(&sum.Key, &sum.Title, &sum.GeneratedText, &savedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return nil, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
	}
	sum.SavedAt = t
	return &sum, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
