package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/adapter"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/filter"
	"github.com/amishk599/jobscout/internal/keywords"
	"github.com/amishk599/jobscout/internal/model"
	"github.com/amishk599/jobscout/internal/notifier"
	"github.com/amishk599/jobscout/internal/poller"
	"github.com/amishk599/jobscout/internal/ratelimit"
	"github.com/amishk599/jobscout/internal/retry"
	"github.com/amishk599/jobscout/internal/scheduler"
	"github.com/amishk599/jobscout/internal/search"
	"github.com/amishk599/jobscout/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "jobscout",
	Short:         "Job search with keyword enrichment and favorites",
	Long:          "jobscout searches a job board near a location, tags each posting with extracted keywords, and keeps per-user favorites.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSCOUT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSCOUT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	return config.Load(config.ResolvePath(path))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// dataStore is what both store backends provide.
type dataStore interface {
	model.FavoriteStore
	model.SeenStore
	Close() error
}

func openStore(ctx context.Context, cfg *config.Config) (dataStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Store.DSN)
	default:
		return store.NewSQLiteStore(cfg.Store.DSN)
	}
}

// buildExtractor assembles provider → rate limit → cache. The returned
// cleanup closes the Redis client when one was opened.
func buildExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.KeywordExtractor, func(), error) {
	kc := cfg.Keywords
	httpClient := &http.Client{Timeout: kc.Timeout}

	var ext model.KeywordExtractor
	switch kc.Provider {
	case "monkeylearn":
		baseURL, modelID := kc.BaseURL, kc.ModelID
		if baseURL == "" {
			baseURL = keywords.DefaultMonkeyLearnBaseURL
		}
		if modelID == "" {
			modelID = keywords.DefaultMonkeyLearnModel
		}
		ext = keywords.NewMonkeyLearnExtractor(baseURL, kc.APIKey, modelID, kc.MaxKeywords, httpClient, logger)
	case "openai":
		provider := keywords.NewOpenAIProvider(kc.BaseURL, kc.APIKey, kc.Model, httpClient)
		ext = keywords.NewLLMExtractor(provider, keywords.KeywordPromptTemplate, kc.MaxKeywords, logger)
	default:
		logger.Debug("keyword extraction disabled")
		return keywords.NewNopExtractor(), func() {}, nil
	}

	if kc.RequestsPerMinute > 0 {
		limiter := ratelimit.NewLimiter(ratelimit.PerMinute(kc.RequestsPerMinute))
		ext = ratelimit.NewRateLimitedExtractor(ext, limiter, kc.Provider)
		logger.Debug("keyword rate limit configured", "provider", kc.Provider, "rpm", kc.RequestsPerMinute)
	}

	if cfg.Cache.RedisURL == "" {
		return ext, func() {}, nil
	}
	cache, err := keywords.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("keyword cache: %w", err)
	}
	logger.Debug("keyword cache enabled", "ttl", cfg.Cache.TTL.String())
	return keywords.NewCachedExtractor(ext, cache, logger), func() { cache.Close() }, nil
}

// buildSearcher wires job board → retry → aggregator with the configured extractor.
func buildSearcher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*search.Aggregator, func(), error) {
	ext, cleanup, err := buildExtractor(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	var src model.PostingSource = adapter.NewJobBoardAdapter(cfg.Search.BaseURL, &http.Client{Timeout: cfg.Search.Timeout}, logger)
	if cfg.Retry.MaxRetries > 0 {
		src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)
	}

	agg := search.NewAggregator(src, ext, search.Options{
		DefaultKeyword: cfg.Search.DefaultKeyword,
		Degrade:        cfg.Search.Degrade,
	}, logger)
	return agg, cleanup, nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func buildPollers(cfg *config.Config, searcher model.Searcher, seen model.SeenStore, n model.Notifier, logger *slog.Logger) []*poller.WatchPoller {
	var pollers []*poller.WatchPoller
	for _, w := range cfg.Watches {
		q := model.SearchQuery{Lat: w.Lat, Lon: w.Lon, Keyword: w.Keyword}
		f := filter.NewKeywordAndLocationFilter(w.KeywordsAny, w.Locations)
		pollers = append(pollers, poller.NewWatchPoller(w.Name, q, searcher, f, seen, n, logger))
		logger.Info("registered watch", "name", w.Name, "keyword", w.Keyword, "lat", w.Lat, "lon", w.Lon)
	}
	return pollers
}

func asSchedulerPollers(pollers []*poller.WatchPoller) []scheduler.Poller {
	out := make([]scheduler.Poller, len(pollers))
	for i, p := range pollers {
		out[i] = p
	}
	return out
}
