package browse

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobscout/internal/model"
)

type recordingStore struct {
	added   []string
	removed []string
	err     error
}

func (s *recordingStore) GetFavorites(_ context.Context, _ string) ([]model.Item, error) {
	return nil, nil
}

func (s *recordingStore) GetFavoriteIDs(_ context.Context, _ string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (s *recordingStore) AddFavorite(_ context.Context, _ string, item model.Item) error {
	s.added = append(s.added, item.ID())
	return s.err
}

func (s *recordingStore) RemoveFavorite(_ context.Context, _ string, itemID string) error {
	s.removed = append(s.removed, itemID)
	return s.err
}

func item(id, name string) model.Item {
	return model.NewItemBuilder().SetID(id).SetName(name).SetKeywords(model.NewKeywordSet("go")).Build()
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command (if any) back through Update.
func press(t *testing.T, m browseModel, k string) browseModel {
	t.Helper()
	next, cmd := m.Update(key(k))
	m = next.(browseModel)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(browseModel)
		}
	}
	return m
}

func sized(m browseModel) browseModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(browseModel)
}

func TestToggleFavoriteAddsAndRemoves(t *testing.T) {
	store := &recordingStore{}
	m := sized(newBrowseModel([]model.Item{item("1", "Go Dev"), item("2", "SRE")}, Options{Store: store, UserID: "1111"}))

	m = press(t, m, "j")
	m = press(t, m, "f")
	if len(store.added) != 1 || store.added[0] != "2" {
		t.Fatalf("added = %v, want [2]", store.added)
	}
	if !m.favIDs["2"] || len(m.favorites) != 1 {
		t.Errorf("favorites not updated: ids=%v n=%d", m.favIDs, len(m.favorites))
	}

	m = press(t, m, "f")
	if len(store.removed) != 1 || store.removed[0] != "2" {
		t.Fatalf("removed = %v, want [2]", store.removed)
	}
	if m.favIDs["2"] || len(m.favorites) != 0 {
		t.Errorf("favorite not removed: ids=%v n=%d", m.favIDs, len(m.favorites))
	}
}

func TestToggleFavoriteErrorKeepsState(t *testing.T) {
	store := &recordingStore{err: errors.New("db down")}
	m := sized(newBrowseModel([]model.Item{item("1", "Go Dev")}, Options{Store: store, UserID: "1111"}))

	m = press(t, m, "f")
	if m.favIDs["1"] {
		t.Error("failed add should not mark the item as favorite")
	}
	if !strings.Contains(m.status, "db down") {
		t.Errorf("status = %q, want the error", m.status)
	}
}

func TestToggleFavoriteWithoutStore(t *testing.T) {
	m := sized(newBrowseModel([]model.Item{item("1", "Go Dev")}, Options{}))

	next, cmd := m.Update(key("f"))
	if cmd != nil {
		t.Error("expected no command without a store")
	}
	if next.(browseModel).status == "" {
		t.Error("expected a status hint")
	}
}

func TestFavoritesPaneRemoval(t *testing.T) {
	store := &recordingStore{}
	favs := []model.Item{item("a", "Saved A"), item("b", "Saved B")}
	m := sized(newBrowseModel(nil, Options{Store: store, UserID: "1111", Favorites: favs}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(browseModel)
	if m.activePane != paneFavorites {
		t.Fatalf("activePane = %d, want favorites", m.activePane)
	}

	m = press(t, m, "j")
	m = press(t, m, "f")
	if len(store.removed) != 1 || store.removed[0] != "b" {
		t.Fatalf("removed = %v, want [b]", store.removed)
	}
	if len(m.favorites) != 1 || m.cursors[paneFavorites] != 0 {
		t.Errorf("favorites = %d, cursor = %d", len(m.favorites), m.cursors[paneFavorites])
	}
}

func TestEnterOpensDetail(t *testing.T) {
	m := sized(newBrowseModel([]model.Item{item("1", "Go Dev")}, Options{}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(browseModel)
	if m.view != viewDetail || m.detailItem.ID() != "1" {
		t.Fatalf("view = %v, detail = %q", m.view, m.detailItem.ID())
	}
	if !strings.Contains(m.renderDetail(), "Go Dev") {
		t.Error("detail should render the posting name")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(browseModel).view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestCursorClamped(t *testing.T) {
	m := sized(newBrowseModel([]model.Item{item("1", "A"), item("2", "B")}, Options{}))
	for i := 0; i < 5; i++ {
		m = press(t, m, "j")
	}
	if m.cursors[paneResults] != 1 {
		t.Errorf("cursor = %d, want 1", m.cursors[paneResults])
	}
	for i := 0; i < 5; i++ {
		m = press(t, m, "k")
	}
	if m.cursors[paneResults] != 0 {
		t.Errorf("cursor = %d, want 0", m.cursors[paneResults])
	}
}

func TestWordWrap(t *testing.T) {
	if got := wordWrap("go rust python java", 9); got != "go rust\npython\njava" {
		t.Errorf("wordWrap = %q", got)
	}
	if got := wordWrap("   ", 10); got != "" {
		t.Errorf("wordWrap blank = %q", got)
	}
}

func TestRemovingFavoriteLeavesPreviousModelIntact(t *testing.T) {
	favs := []model.Item{item("a", "A"), item("b", "B"), item("c", "C")}
	prev := sized(newBrowseModel(nil, Options{Favorites: favs}))

	next := prev
	next.applyFavorite(favs[0], false)

	if len(next.favorites) != 2 || next.favorites[0].ID() != "b" {
		t.Fatalf("next favorites = %v, want [b c]", itemIDs(next.favorites))
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if prev.favorites[i].ID() != id {
			t.Errorf("previous model favorites = %v, want %v", itemIDs(prev.favorites), want)
			break
		}
	}
}

func itemIDs(items []model.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID()
	}
	return out
}
