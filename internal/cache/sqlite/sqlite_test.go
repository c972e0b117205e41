package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loykin/docserve/internal/cache"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}

func TestGetMissing(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.Get(context.Background(), "nope"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	rec := cache.Record{
		Key:      cache.Key([]byte("doc-bytes")),
		Name:     "doc.pdf",
		Markdown: "# Page 1\n\nhello\n",
		Pages:    1,
		Duration: 2.5,
	}
	if err := db.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(ctx, rec.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Markdown != rec.Markdown || got.Pages != 1 || got.Duration != 2.5 || got.Name != "doc.pdf" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("created_at not filled")
	}
}

func TestPutOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	key := cache.Key([]byte("same-content"))
	if err := db.Put(ctx, cache.Record{Key: key, Name: "a.pdf", Markdown: "old", Pages: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Put(ctx, cache.Record{Key: key, Name: "a.pdf", Markdown: "new", Pages: 2}); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := db.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Markdown != "new" || got.Pages != 2 {
		t.Fatalf("upsert did not replace: %+v", got)
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st, err := db.Stats(ctx)
	if err != nil || st.Entries != 0 {
		t.Fatalf("empty stats: %+v %v", st, err)
	}
	old := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)
	_ = db.Put(ctx, cache.Record{Key: "k1", Name: "a", Markdown: "x", CreatedAt: old})
	_ = db.Put(ctx, cache.Record{Key: "k2", Name: "b", Markdown: "y"})
	st, err = db.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", st.Entries)
	}
	if !st.Oldest.Equal(old) {
		t.Fatalf("oldest mismatch: %v vs %v", st.Oldest, old)
	}
}
