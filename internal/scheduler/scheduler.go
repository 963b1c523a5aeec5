// Package scheduler drives the watch pollers on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/amishk599/jobscout/internal/model"
)

// Poller is one unit of scheduled work.
type Poller interface {
	Poll(ctx context.Context) error
}

// Named is implemented by pollers that can identify themselves in logs.
type Named interface {
	WatchName() string
}

// Scheduler wraps robfig/cron. Each tick runs every poller sequentially;
// a tick that fires while the previous one is still running is skipped.
type Scheduler struct {
	pollers   []Poller
	spec      string
	store     model.SeenStore
	retention time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler that polls on spec (e.g. "@every 30m").
// When store is non-nil and retention > 0, seen entries older than retention
// are purged once a day.
func NewScheduler(pollers []Poller, spec string, store model.SeenStore, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pollers:   pollers,
		spec:      spec,
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

// Run registers the jobs, runs one immediate cycle, then blocks until ctx is
// cancelled. It returns nil on graceful shutdown after in-flight jobs finish.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := c.AddFunc(s.spec, func() { s.pollAll(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	if s.store != nil && s.retention > 0 {
		if _, err := c.AddFunc("@daily", func() { s.cleanup(ctx) }); err != nil {
			return fmt.Errorf("cron.AddFunc cleanup: %w", err)
		}
	}

	s.logger.Info("starting scheduler", "schedule", s.spec, "watches", len(s.pollers))

	s.cleanup(ctx)
	s.pollAll(ctx)

	c.Start()
	<-ctx.Done()

	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) pollAll(ctx context.Context) {
	for _, p := range s.pollers {
		if ctx.Err() != nil {
			return
		}
		if err := p.Poll(ctx); err != nil {
			s.logger.Error("poll failed", "watch", pollerName(p), "error", err)
		}
	}
}

func (s *Scheduler) cleanup(ctx context.Context) {
	if s.store == nil || s.retention <= 0 {
		return
	}
	if err := s.store.Cleanup(ctx, s.retention); err != nil {
		s.logger.Error("seen cleanup failed", "error", err)
		return
	}
	s.logger.Debug("seen cleanup complete", "retention", s.retention.String())
}

func pollerName(p Poller) string {
	if n, ok := p.(Named); ok {
		return n.WatchName()
	}
	return fmt.Sprintf("%T", p)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
