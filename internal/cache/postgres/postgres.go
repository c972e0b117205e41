package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/docserve/internal/cache"
)

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS parse_cache(
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			markdown TEXT NOT NULL,
			pages INTEGER NOT NULL,
			duration DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_parse_cache_created ON parse_cache(created_at);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Get(ctx context.Context, key string) (cache.Record, error) {
	var rec cache.Record
	err := p.db.QueryRowContext(ctx, `
		SELECT key, name, markdown, pages, duration, created_at
		FROM parse_cache WHERE key=$1;`, key).
		Scan(&rec.Key, &rec.Name, &rec.Markdown, &rec.Pages, &rec.Duration, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Record{}, cache.ErrNotFound
	}
	if err != nil {
		return cache.Record{}, err
	}
	return rec, nil
}

func (p *DB) Put(ctx context.Context, rec cache.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO parse_cache(key, name, markdown, pages, duration, created_at)
		VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT(key) DO UPDATE SET
			name=EXCLUDED.name,
			markdown=EXCLUDED.markdown,
			pages=EXCLUDED.pages,
			duration=EXCLUDED.duration,
			created_at=EXCLUDED.created_at;`,
		rec.Key, rec.Name, rec.Markdown, rec.Pages, rec.Duration, rec.CreatedAt.UTC())
	return err
}

func (p *DB) Stats(ctx context.Context) (cache.Stats, error) {
	var st cache.Stats
	var oldest sql.NullTime
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM parse_cache;`).Scan(&st.Entries, &oldest)
	if err != nil {
		return cache.Stats{}, err
	}
	if oldest.Valid {
		st.Oldest = oldest.Time
	}
	return st, nil
}
