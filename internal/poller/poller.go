package poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobscout/internal/model"
)

// WatchPoller owns the full pipeline for a single saved search:
// search → filter → dedup → notify → mark seen.
type WatchPoller struct {
	Name     string
	query    model.SearchQuery
	searcher model.Searcher
	filter   model.ItemFilter
	store    model.SeenStore
	notifier model.Notifier
	logger   *slog.Logger
}

// NewWatchPoller creates a poller wired with all its dependencies.
func NewWatchPoller(
	name string,
	query model.SearchQuery,
	searcher model.Searcher,
	filter model.ItemFilter,
	store model.SeenStore,
	notifier model.Notifier,
	logger *slog.Logger,
) *WatchPoller {
	return &WatchPoller{
		Name:     name,
		query:    query,
		searcher: searcher,
		filter:   filter,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// Poll runs one cycle. Items are marked seen only after a successful notify,
// so a failed notification is retried on the next cycle.
func (p *WatchPoller) Poll(ctx context.Context) error {
	items, err := p.searcher.Search(ctx, p.query.Lat, p.query.Lon, p.query.Keyword)
	if err != nil {
		return fmt.Errorf("polling %s: %w", p.Name, err)
	}

	var matched []model.Item
	for _, it := range items {
		if p.filter.Match(it) {
			matched = append(matched, it)
		}
	}

	var newItems []model.Item
	batch := make(map[string]bool)
	for _, it := range matched {
		// Without an ID there is nothing to dedup on.
		if it.ID() == "" {
			p.logger.Debug("skipping item without id", "watch", p.Name, "name", it.Name())
			continue
		}
		if batch[it.ID()] {
			continue
		}
		seen, err := p.store.HasSeen(ctx, it.ID())
		if err != nil {
			return fmt.Errorf("polling %s: checking seen status: %w", p.Name, err)
		}
		if !seen {
			batch[it.ID()] = true
			newItems = append(newItems, it)
		}
	}

	if len(newItems) > 0 {
		if err := p.notifier.Notify(p.Name, newItems); err != nil {
			return fmt.Errorf("polling %s: notifying: %w", p.Name, err)
		}
	}

	for _, it := range newItems {
		if err := p.store.MarkSeen(ctx, it.ID()); err != nil {
			return fmt.Errorf("polling %s: marking seen: %w", p.Name, err)
		}
	}

	p.logger.Info("polled watch",
		"watch", p.Name,
		"fetched", len(items),
		"matched", len(matched),
		"new", len(newItems),
	)

	return nil
}

// WatchName identifies the poller in scheduler logs.
func (p *WatchPoller) WatchName() string { return p.Name }
