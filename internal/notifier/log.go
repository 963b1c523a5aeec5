package notifier

import (
	"log/slog"
	"strings"

	"github.com/amishk599/jobscout/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes new matches to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each item via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each item with its watch, name, address, keywords and URL.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(watch string, items []model.Item) error {
	for _, it := range items {
		n.logger.Info("new posting",
			"watch", watch,
			"item_id", it.ID(),
			"name", it.Name(),
			"address", it.Address(),
			"keywords", strings.Join(it.Keywords().Sorted(), ","),
			"url", it.URL(),
		)
	}
	return nil
}
