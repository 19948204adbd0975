package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yourflix/catalogd/internal/metadata"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db)
}

func TestStore_CacheRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	resolved := metadata.Single(metadata.Candidate{
		Title:         "Bloodsport",
		Year:          1988,
		CatalogNumber: "PILF-1618",
		Source:        metadata.SourceLDDB,
	})

	if err := store.SaveCached(ctx, "PILF-1618", "", resolved); err != nil {
		t.Fatalf("SaveCached() error = %v", err)
	}

	got, err := store.GetCached(ctx, "PILF-1618", "")
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetCached() = nil, want record")
	}
	if got.Title != "Bloodsport" || got.Year != 1988 {
		t.Errorf("got %q (%d)", got.Title, got.Year)
	}
	if len(got.Sources) != 1 || got.Sources[0] != metadata.SourceLDDB {
		t.Errorf("Sources = %v", got.Sources)
	}
}

func TestStore_CacheMissIsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetCached(context.Background(), "nothing", "")
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetCached() = %+v, want nil miss", got)
	}
}

func TestStore_CacheUpsertReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := metadata.Single(metadata.Candidate{Title: "Old", Source: metadata.SourceBarcode})
	second := metadata.Single(metadata.Candidate{Title: "New", Source: metadata.SourceTMDB})

	if err := store.SaveCached(ctx, "0043396021", "", first); err != nil {
		t.Fatalf("SaveCached() error = %v", err)
	}
	if err := store.SaveCached(ctx, "0043396021", "", second); err != nil {
		t.Fatalf("SaveCached() error = %v", err)
	}

	got, err := store.GetCached(ctx, "0043396021", "")
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if got.Title != "New" {
		t.Errorf("Title = %q, want New", got.Title)
	}
}

func TestStore_HintIsPartOfTheKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	withHint := metadata.Single(metadata.Candidate{Title: "Hinted"})
	if err := store.SaveCached(ctx, "PILF-1618", "Bloodsport", withHint); err != nil {
		t.Fatalf("SaveCached() error = %v", err)
	}

	got, err := store.GetCached(ctx, "PILF-1618", "")
	if err != nil {
		t.Fatalf("GetCached() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetCached() without hint = %+v, want miss", got)
	}
}

func TestStore_QueueLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1, err := store.Enqueue(ctx, "PILF-1618", "Bloodsport")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	id2, err := store.Enqueue(ctx, "CC-1234", "")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	items, err := store.NextPending(ctx, 10)
	if err != nil {
		t.Fatalf("NextPending() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("NextPending() = %d items, want 2", len(items))
	}
	if items[0].Identifier != "PILF-1618" || items[0].Hint != "Bloodsport" {
		t.Errorf("items[0] = %+v", items[0])
	}

	if err := store.MarkDone(ctx, id1); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	if err := store.MarkFailed(ctx, id2, "connection refused"); err != nil {
		t.Fatalf("MarkFailed() error = %v", err)
	}

	items, err = store.NextPending(ctx, 10)
	if err != nil {
		t.Fatalf("NextPending() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("NextPending() = %d items after completion, want 0", len(items))
	}

	counts, err := store.QueueCounts(ctx)
	if err != nil {
		t.Fatalf("QueueCounts() error = %v", err)
	}
	if counts[StatusDone] != 1 || counts[StatusFailed] != 1 {
		t.Errorf("QueueCounts() = %v", counts)
	}
}

func TestStore_NextPendingHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, ident := range []string{"PILF-0001", "PILF-0002", "PILF-0003"} {
		if _, err := store.Enqueue(ctx, ident, ""); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	items, err := store.NextPending(ctx, 2)
	if err != nil {
		t.Fatalf("NextPending() error = %v", err)
	}
	if len(items) != 2 {
		t.Errorf("NextPending(2) = %d items, want 2", len(items))
	}
}
