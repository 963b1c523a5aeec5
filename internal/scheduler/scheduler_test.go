package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// --- Mock implementations ---

type countingPoller struct {
	calls atomic.Int32
	err   error
}

func (p *countingPoller) Poll(_ context.Context) error {
	p.calls.Add(1)
	return p.err
}

type orderRecorder struct {
	mu    sync.Mutex
	order []string
}

type recordingPoller struct {
	id  string
	rec *orderRecorder
}

func (p *recordingPoller) Poll(_ context.Context) error {
	p.rec.mu.Lock()
	p.rec.order = append(p.rec.order, p.id)
	p.rec.mu.Unlock()
	return nil
}

func (p *recordingPoller) WatchName() string { return p.id }

type cleanupStore struct {
	cleanups  atomic.Int32
	retention atomic.Int64
}

func (s *cleanupStore) HasSeen(_ context.Context, _ string) (bool, error) { return false, nil }
func (s *cleanupStore) MarkSeen(_ context.Context, _ string) error        { return nil }
func (s *cleanupStore) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.cleanups.Add(1)
	s.retention.Store(int64(olderThan))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, s *Scheduler, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(d)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

// --- Tests ---

func TestRun_ImmediateCycleThenCancel(t *testing.T) {
	p := &countingPoller{}
	runFor(t, NewScheduler([]Poller{p}, "@every 1h", nil, 0, discardLogger()), 100*time.Millisecond)

	if got := p.calls.Load(); got != 1 {
		t.Errorf("poll calls = %d, want 1 (immediate cycle only)", got)
	}
}

func TestRun_TicksOnSchedule(t *testing.T) {
	p := &countingPoller{}
	// cron's @every has one-second granularity.
	runFor(t, NewScheduler([]Poller{p}, "@every 1s", nil, 0, discardLogger()), 2500*time.Millisecond)

	if got := p.calls.Load(); got < 2 {
		t.Errorf("poll calls = %d, want >= 2", got)
	}
}

func TestRun_InvalidSchedule(t *testing.T) {
	s := NewScheduler([]Poller{&countingPoller{}}, "not a schedule", nil, 0, discardLogger())
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestRun_OnePollerErrorOthersStillRun(t *testing.T) {
	failing := &countingPoller{err: errors.New("search failed")}
	healthy := &countingPoller{}

	runFor(t, NewScheduler([]Poller{failing, healthy}, "@every 1h", nil, 0, discardLogger()), 100*time.Millisecond)

	if got := failing.calls.Load(); got != 1 {
		t.Errorf("failing poller calls = %d, want 1", got)
	}
	if got := healthy.calls.Load(); got != 1 {
		t.Errorf("healthy poller calls = %d, want 1", got)
	}
}

func TestRun_OrderPreserved(t *testing.T) {
	rec := &orderRecorder{}
	pollers := []Poller{
		&recordingPoller{id: "w1", rec: rec},
		&recordingPoller{id: "w2", rec: rec},
		&recordingPoller{id: "w3", rec: rec},
	}
	runFor(t, NewScheduler(pollers, "@every 1h", nil, 0, discardLogger()), 100*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	want := []string{"w1", "w2", "w3"}
	if len(rec.order) != len(want) {
		t.Fatalf("order = %v, want %v", rec.order, want)
	}
	for i := range want {
		if rec.order[i] != want[i] {
			t.Errorf("order = %v, want %v", rec.order, want)
			break
		}
	}
}

func TestRun_CleanupOnStartup(t *testing.T) {
	store := &cleanupStore{}
	runFor(t, NewScheduler(nil, "@every 1h", store, 48*time.Hour, discardLogger()), 100*time.Millisecond)

	if got := store.cleanups.Load(); got != 1 {
		t.Errorf("cleanups = %d, want 1", got)
	}
	if got := time.Duration(store.retention.Load()); got != 48*time.Hour {
		t.Errorf("retention = %v, want 48h", got)
	}
}

func TestRun_NoCleanupWithoutRetention(t *testing.T) {
	store := &cleanupStore{}
	runFor(t, NewScheduler(nil, "@every 1h", store, 0, discardLogger()), 50*time.Millisecond)

	if got := store.cleanups.Load(); got != 0 {
		t.Errorf("cleanups = %d, want 0", got)
	}
}

func TestPollerName(t *testing.T) {
	if got := pollerName(&recordingPoller{id: "bay-area"}); got != "bay-area" {
		t.Errorf("pollerName = %q, want bay-area", got)
	}
	if got := pollerName(&countingPoller{}); got != "*scheduler.countingPoller" {
		t.Errorf("pollerName = %q", got)
	}
}
