package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testItem(id, name string, keywords ...string) model.Item {
	return model.NewItemBuilder().
		SetID(id).
		SetName(name).
		SetAddress("Mountain View").
		SetImageURL("https://img.example/" + id).
		SetURL("https://jobs.example/" + id).
		SetKeywords(model.NewKeywordSet(keywords...)).
		Build()
}

func TestMarkSeenThenHasSeen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MarkSeen(ctx, "item-123"); err != nil {
		t.Fatalf("MarkSeen: %v", err)
	}

	seen, err := s.HasSeen(ctx, "item-123")
	if err != nil {
		t.Fatalf("HasSeen: %v", err)
	}
	if !seen {
		t.Error("expected HasSeen to return true after MarkSeen")
	}
}

func TestHasSeenUnknownReturnsFalse(t *testing.T) {
	s := newTestStore(t)

	seen, err := s.HasSeen(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("HasSeen: %v", err)
	}
	if seen {
		t.Error("expected HasSeen to return false for unknown item ID")
	}
}

func TestMarkSeenIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MarkSeen(ctx, "item-456"); err != nil {
		t.Fatalf("first MarkSeen: %v", err)
	}
	if err := s.MarkSeen(ctx, "item-456"); err != nil {
		t.Fatalf("second MarkSeen (duplicate): %v", err)
	}

	seen, err := s.HasSeen(ctx, "item-456")
	if err != nil {
		t.Fatalf("HasSeen: %v", err)
	}
	if !seen {
		t.Error("expected HasSeen to return true after duplicate MarkSeen")
	}
}

func TestCleanupRemovesOldKeepsFresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Insert an "old" entry by writing directly with a past timestamp.
	_, err := s.db.Exec(
		"INSERT INTO seen_items (item_id, first_seen) VALUES (?, ?)",
		"old-item", time.Now().UTC().Add(-48*time.Hour),
	)
	if err != nil {
		t.Fatalf("inserting old item: %v", err)
	}

	if err := s.MarkSeen(ctx, "fresh-item"); err != nil {
		t.Fatalf("MarkSeen fresh: %v", err)
	}

	if err := s.Cleanup(ctx, 24*time.Hour); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	seen, err := s.HasSeen(ctx, "old-item")
	if err != nil {
		t.Fatalf("HasSeen old: %v", err)
	}
	if seen {
		t.Error("expected old item to be cleaned up")
	}

	seen, err = s.HasSeen(ctx, "fresh-item")
	if err != nil {
		t.Fatalf("HasSeen fresh: %v", err)
	}
	if !seen {
		t.Error("expected fresh item to survive cleanup")
	}
}

func TestAddFavoriteThenGetFavorites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "1111", testItem("a", "Go Engineer", "go", "grpc")); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}

	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}
	got := favs[0]
	if got.ID() != "a" || got.Name() != "Go Engineer" || got.Address() != "Mountain View" {
		t.Errorf("unexpected item: %+v", got.View())
	}
	if got.URL() != "https://jobs.example/a" || got.ImageURL() != "https://img.example/a" {
		t.Errorf("urls not round-tripped: %q %q", got.URL(), got.ImageURL())
	}
	kw := got.Keywords()
	if len(kw) != 2 || !kw.Has("go") || !kw.Has("grpc") {
		t.Errorf("keywords = %v, want [go grpc]", kw.Sorted())
	}
}

func TestAddFavoriteIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	item := testItem("a", "Go Engineer", "go")

	for i := 0; i < 2; i++ {
		if err := s.AddFavorite(ctx, "1111", item); err != nil {
			t.Fatalf("AddFavorite #%d: %v", i+1, err)
		}
	}

	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 1 {
		t.Errorf("expected 1 favorite after duplicate add, got %d", len(favs))
	}
}

func TestAddFavoriteReplacesStoredItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "1111", testItem("a", "Old Title", "java")); err != nil {
		t.Fatalf("AddFavorite old: %v", err)
	}
	if err := s.AddFavorite(ctx, "1111", testItem("a", "New Title", "go")); err != nil {
		t.Fatalf("AddFavorite new: %v", err)
	}

	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}
	if favs[0].Name() != "New Title" {
		t.Errorf("name = %q, want %q", favs[0].Name(), "New Title")
	}
	if kw := favs[0].Keywords(); len(kw) != 1 || !kw.Has("go") {
		t.Errorf("keywords = %v, want [go]", kw.Sorted())
	}
}

func TestAddFavoriteWithoutKeywordsClearsOldOnes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "1111", testItem("a", "Go Engineer", "go", "grpc")); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	if err := s.AddFavorite(ctx, "2222", testItem("a", "Go Engineer")); err != nil {
		t.Fatalf("AddFavorite again: %v", err)
	}

	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 1 {
		t.Fatalf("expected 1 favorite, got %d", len(favs))
	}
	if kw := favs[0].Keywords(); len(kw) != 0 {
		t.Errorf("expected the shared item to have no keywords, got %v", kw.Sorted())
	}
}

func TestFavoriteWithoutKeywords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddFavorite(ctx, "1111", testItem("bare", "No Keywords")); err != nil {
		t.Fatalf("AddFavorite: %v", err)
	}
	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 1 || len(favs[0].Keywords()) != 0 {
		t.Fatalf("unexpected favorites: %d", len(favs))
	}
}

func TestFavoritesArePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	item := testItem("shared", "Shared Posting", "go")

	if err := s.AddFavorite(ctx, "alice", item); err != nil {
		t.Fatalf("AddFavorite alice: %v", err)
	}
	if err := s.AddFavorite(ctx, "bob", item); err != nil {
		t.Fatalf("AddFavorite bob: %v", err)
	}
	if err := s.RemoveFavorite(ctx, "alice", "shared"); err != nil {
		t.Fatalf("RemoveFavorite: %v", err)
	}

	alice, err := s.GetFavorites(ctx, "alice")
	if err != nil {
		t.Fatalf("GetFavorites alice: %v", err)
	}
	if len(alice) != 0 {
		t.Errorf("alice should have no favorites, got %d", len(alice))
	}

	bob, err := s.GetFavoriteIDs(ctx, "bob")
	if err != nil {
		t.Fatalf("GetFavoriteIDs bob: %v", err)
	}
	if !bob["shared"] {
		t.Error("removing alice's favorite should not affect bob")
	}
}

func TestRemoveUnknownFavoriteIsNoop(t *testing.T) {
	s := newTestStore(t)
	if err := s.RemoveFavorite(context.Background(), "1111", "missing"); err != nil {
		t.Errorf("RemoveFavorite of unknown item: %v", err)
	}
}

func TestGetFavoritesMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"old", "new"} {
		if err := s.AddFavorite(ctx, "1111", testItem(id, id)); err != nil {
			t.Fatalf("AddFavorite %s: %v", id, err)
		}
	}
	// Pin timestamps so ordering does not depend on clock resolution.
	if _, err := s.db.Exec("UPDATE history SET last_favor_time = ? WHERE item_id = 'old'", time.Now().UTC().Add(-time.Hour)); err != nil {
		t.Fatalf("backdating favorite: %v", err)
	}

	favs, err := s.GetFavorites(ctx, "1111")
	if err != nil {
		t.Fatalf("GetFavorites: %v", err)
	}
	if len(favs) != 2 || favs[0].ID() != "new" || favs[1].ID() != "old" {
		t.Errorf("unexpected order: %v", ids(favs))
	}
}

func TestGetFavoriteIDsEmptyUser(t *testing.T) {
	s := newTestStore(t)
	ids, err := s.GetFavoriteIDs(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetFavoriteIDs: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Errorf("expected empty non-nil set, got %v", ids)
	}
}

func ids(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}
