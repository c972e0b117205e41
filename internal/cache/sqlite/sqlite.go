package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/docserve/internal/cache"
)

// DB implements cache.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the database file; use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parse_cache(
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			markdown TEXT NOT NULL,
			pages INTEGER NOT NULL,
			duration REAL NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_parse_cache_created ON parse_cache(created_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Get(ctx context.Context, key string) (cache.Record, error) {
	var rec cache.Record
	err := s.db.QueryRowContext(ctx, `
		SELECT key, name, markdown, pages, duration, created_at
		FROM parse_cache WHERE key=?;`, key).
		Scan(&rec.Key, &rec.Name, &rec.Markdown, &rec.Pages, &rec.Duration, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Record{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Record{}, err
	}
	return rec, nil
}

func (s *DB) Put(ctx context.Context, rec cache.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parse_cache(key, name, markdown, pages, duration, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			name=excluded.name,
			markdown=excluded.markdown,
			pages=excluded.pages,
			duration=excluded.duration,
			created_at=excluded.created_at;`,
		rec.Key, rec.Name, rec.Markdown, rec.Pages, rec.Duration, rec.CreatedAt.UTC())
	return err
}

func (s *DB) Stats(ctx context.Context) (cache.Stats, error) {
	var st cache.Stats
	var oldest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM parse_cache;`).Scan(&st.Entries, &oldest)
	if err != nil {
		return cache.Stats{}, err
	}
	if oldest.Valid {
		st.Oldest = oldest.Time
	}
	return st, nil
}
