package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// --- Mock/Fake Implementations ---

// MockSearcher returns canned items or an error and records queries.
type MockSearcher struct {
	Items   []model.Item
	Err     error
	Queries []model.SearchQuery
}

func (m *MockSearcher) Search(_ context.Context, lat, lon float64, keyword string) ([]model.Item, error) {
	m.Queries = append(m.Queries, model.SearchQuery{Lat: lat, Lon: lon, Keyword: keyword})
	return m.Items, m.Err
}

// InMemoryStore is a map-based store for testing dedup.
type InMemoryStore struct {
	seen map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[string]bool)}
}

func (s *InMemoryStore) HasSeen(_ context.Context, id string) (bool, error) {
	return s.seen[id], nil
}

func (s *InMemoryStore) MarkSeen(_ context.Context, id string) error {
	s.seen[id] = true
	return nil
}

func (s *InMemoryStore) Cleanup(_ context.Context, _ time.Duration) error { return nil }

// RecordingNotifier records which items were sent to Notify.
type RecordingNotifier struct {
	Watches  []string
	Notified []model.Item
	Err      error
}

func (n *RecordingNotifier) Notify(watch string, items []model.Item) error {
	if n.Err != nil {
		return n.Err
	}
	n.Watches = append(n.Watches, watch)
	n.Notified = append(n.Notified, items...)
	return nil
}

// AcceptAllFilter matches every item.
type AcceptAllFilter struct{}

func (f *AcceptAllFilter) Match(_ model.Item) bool { return true }

// RejectAllFilter rejects every item.
type RejectAllFilter struct{}

func (f *RejectAllFilter) Match(_ model.Item) bool { return false }

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeItems(ids ...string) []model.Item {
	items := make([]model.Item, len(ids))
	for i, id := range ids {
		items[i] = model.NewItemBuilder().SetID(id).SetName("Engineer " + id).Build()
	}
	return items
}

func newPoller(s model.Searcher, f model.ItemFilter, st model.SeenStore, n model.Notifier) *WatchPoller {
	q := model.SearchQuery{Lat: 37.38, Lon: -122.08, Keyword: "go"}
	return NewWatchPoller("bay-area", q, s, f, st, n, discardLogger())
}

// --- Tests ---

func TestPoll_NewItemsNotifiedAndMarkedSeen(t *testing.T) {
	searcher := &MockSearcher{Items: makeItems("1", "2")}
	store := NewInMemoryStore()
	notifier := &RecordingNotifier{}

	if err := newPoller(searcher, &AcceptAllFilter{}, store, notifier).Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(notifier.Notified) != 2 {
		t.Errorf("notified %d items, want 2", len(notifier.Notified))
	}
	if len(notifier.Watches) != 1 || notifier.Watches[0] != "bay-area" {
		t.Errorf("watches = %v, want [bay-area]", notifier.Watches)
	}
	if !store.seen["1"] || !store.seen["2"] {
		t.Error("expected both items marked seen")
	}
	q := searcher.Queries[0]
	if q.Lat != 37.38 || q.Lon != -122.08 || q.Keyword != "go" {
		t.Errorf("unexpected query: %+v", q)
	}
}

func TestPoll_SeenItemsSkipped(t *testing.T) {
	store := NewInMemoryStore()
	store.seen["1"] = true
	notifier := &RecordingNotifier{}

	p := newPoller(&MockSearcher{Items: makeItems("1", "2")}, &AcceptAllFilter{}, store, notifier)
	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(notifier.Notified) != 1 || notifier.Notified[0].ID() != "2" {
		t.Errorf("expected only item 2 notified, got %d items", len(notifier.Notified))
	}
}

func TestPoll_SecondCycleNotifiesNothing(t *testing.T) {
	store := NewInMemoryStore()
	notifier := &RecordingNotifier{}
	p := newPoller(&MockSearcher{Items: makeItems("1")}, &AcceptAllFilter{}, store, notifier)

	for i := 0; i < 2; i++ {
		if err := p.Poll(context.Background()); err != nil {
			t.Fatalf("Poll #%d: %v", i+1, err)
		}
	}
	if len(notifier.Notified) != 1 {
		t.Errorf("notified %d items across two cycles, want 1", len(notifier.Notified))
	}
}

func TestPoll_FilteredItemsNotNotified(t *testing.T) {
	store := NewInMemoryStore()
	notifier := &RecordingNotifier{}

	p := newPoller(&MockSearcher{Items: makeItems("1")}, &RejectAllFilter{}, store, notifier)
	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(notifier.Notified) != 0 {
		t.Error("filtered items should not be notified")
	}
	if store.seen["1"] {
		t.Error("filtered items should not be marked seen")
	}
}

func TestPoll_DuplicateAndBlankIDs(t *testing.T) {
	items := append(makeItems("1", "1"), model.NewItemBuilder().SetName("No ID").Build())
	notifier := &RecordingNotifier{}

	p := newPoller(&MockSearcher{Items: items}, &AcceptAllFilter{}, NewInMemoryStore(), notifier)
	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(notifier.Notified) != 1 {
		t.Errorf("notified %d items, want 1", len(notifier.Notified))
	}
}

func TestPoll_SearchErrorReturned(t *testing.T) {
	p := newPoller(&MockSearcher{Err: errors.New("extraction down")}, &AcceptAllFilter{}, NewInMemoryStore(), &RecordingNotifier{})
	if err := p.Poll(context.Background()); err == nil {
		t.Fatal("expected error from failed search")
	}
}

func TestPoll_NotifyErrorLeavesItemsUnseen(t *testing.T) {
	store := NewInMemoryStore()
	notifier := &RecordingNotifier{Err: errors.New("slack down")}

	p := newPoller(&MockSearcher{Items: makeItems("1")}, &AcceptAllFilter{}, store, notifier)
	if err := p.Poll(context.Background()); err == nil {
		t.Fatal("expected notify error")
	}
	if store.seen["1"] {
		t.Error("items must stay unseen when notification fails")
	}
}

func TestPoll_NoItemsNoNotify(t *testing.T) {
	notifier := &RecordingNotifier{}
	p := newPoller(&MockSearcher{Items: []model.Item{}}, &AcceptAllFilter{}, NewInMemoryStore(), notifier)
	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if len(notifier.Watches) != 0 {
		t.Error("Notify should not be called with no new items")
	}
}
