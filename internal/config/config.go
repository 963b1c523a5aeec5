package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobscout.
type Config struct {
	Search       SearchConfig
	Keywords     KeywordsConfig
	Cache        CacheConfig
	Store        StoreConfig
	Server       ServerConfig
	Watches      []WatchConfig
	Watch        WatchScheduleConfig
	Notification NotificationConfig
	Retry        RetryConfig
}

// SearchConfig controls the job board and the aggregation pass.
type SearchConfig struct {
	BaseURL        string // empty means the public job board
	DefaultKeyword string // substituted for an empty search keyword
	Timeout        time.Duration
	// Degrade returns items with empty keywords instead of failing the
	// search when keyword extraction fails.
	Degrade bool
}

// KeywordsConfig selects and configures the keyword extraction backend.
type KeywordsConfig struct {
	Provider          string // "monkeylearn", "openai" or "none"
	BaseURL           string
	APIKey            string // expanded from env var by Load
	ModelID           string // monkeylearn extractor model
	Model             string // openai model identifier, e.g. "gpt-4o-mini"
	MaxKeywords       int
	RequestsPerMinute int // 0 disables client-side rate limiting
	Timeout           time.Duration
}

// CacheConfig enables the Redis keyword cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// StoreConfig selects the favorites and seen-items database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, URL for postgres
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WatchConfig is one saved search run by the watch daemon.
type WatchConfig struct {
	Name        string   `yaml:"name"`
	Lat         float64  `yaml:"lat"`
	Lon         float64  `yaml:"lon"`
	Keyword     string   `yaml:"keyword"`
	KeywordsAny []string `yaml:"keywords_any"`
	Locations   []string `yaml:"locations"`
}

// WatchScheduleConfig controls when watches run and how long dedup state is kept.
type WatchScheduleConfig struct {
	Schedule      string // cron spec, e.g. "@every 30m"
	SeenRetention time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// RetryConfig controls retries of job board requests.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	slackWebhookPrefix   = "https://hooks.slack.com/"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Search       rawSearchConfig    `yaml:"search"`
	Keywords     rawKeywordsConfig  `yaml:"keywords"`
	Cache        rawCacheConfig     `yaml:"cache"`
	Store        StoreConfig        `yaml:"store"`
	Server       ServerConfig       `yaml:"server"`
	Watches      []WatchConfig      `yaml:"watches"`
	Watch        rawWatchConfig     `yaml:"watch"`
	Notification NotificationConfig `yaml:"notification"`
	Retry        rawRetryConfig     `yaml:"retry"`
}

type rawSearchConfig struct {
	BaseURL        string `yaml:"base_url"`
	DefaultKeyword string `yaml:"default_keyword"`
	Timeout        string `yaml:"timeout"`
	Degrade        bool   `yaml:"degrade_on_extraction_failure"`
}

type rawKeywordsConfig struct {
	Provider          string `yaml:"provider"`
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"`
	ModelID           string `yaml:"model_id"`
	Model             string `yaml:"model"`
	MaxKeywords       *int   `yaml:"max_keywords"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Timeout           string `yaml:"timeout"`
}

type rawCacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      string `yaml:"ttl"`
}

type rawWatchConfig struct {
	Schedule      string `yaml:"schedule"`
	SeenRetention string `yaml:"seen_retention"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. Environment variables are expanded first.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	searchTimeout, err := durationOr(raw.Search.Timeout, 15*time.Second, "search.timeout")
	if err != nil {
		return nil, err
	}
	keywordsTimeout, err := durationOr(raw.Keywords.Timeout, 30*time.Second, "keywords.timeout")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := durationOr(raw.Cache.TTL, 7*24*time.Hour, "cache.ttl")
	if err != nil {
		return nil, err
	}
	retention, err := durationOr(raw.Watch.SeenRetention, 30*24*time.Hour, "watch.seen_retention")
	if err != nil {
		return nil, err
	}
	baseDelay, err := durationOr(raw.Retry.BaseDelay, 2*time.Second, "retry.base_delay")
	if err != nil {
		return nil, err
	}

	provider := strings.ToLower(raw.Keywords.Provider)
	if provider == "" {
		provider = "none"
	}
	keywordsBaseURL := raw.Keywords.BaseURL
	model := raw.Keywords.Model
	if provider == "openai" {
		if keywordsBaseURL == "" {
			keywordsBaseURL = defaultOpenAIBaseURL
		}
		if model == "" {
			model = defaultOpenAIModel
		}
	}
	maxKeywords := 10
	if raw.Keywords.MaxKeywords != nil {
		maxKeywords = *raw.Keywords.MaxKeywords
	}

	maxRetries := 3
	if raw.Retry.MaxRetries != nil {
		maxRetries = *raw.Retry.MaxRetries
	}

	storeCfg := raw.Store
	storeCfg.Driver = strings.ToLower(storeCfg.Driver)
	if storeCfg.Driver == "" {
		storeCfg.Driver = "sqlite"
	}
	if storeCfg.Driver == "sqlite" && storeCfg.DSN == "" {
		storeCfg.DSN = "jobscout.db"
	}

	serverCfg := raw.Server
	if serverCfg.Addr == "" {
		serverCfg.Addr = ":8080"
	}

	schedule := raw.Watch.Schedule
	if schedule == "" {
		schedule = "@every 30m"
	}

	notification := raw.Notification
	if notification.Type == "" {
		notification.Type = "log"
	}

	cfg := &Config{
		Search: SearchConfig{
			BaseURL:        raw.Search.BaseURL,
			DefaultKeyword: raw.Search.DefaultKeyword,
			Timeout:        searchTimeout,
			Degrade:        raw.Search.Degrade,
		},
		Keywords: KeywordsConfig{
			Provider:          provider,
			BaseURL:           keywordsBaseURL,
			APIKey:            raw.Keywords.APIKey,
			ModelID:           raw.Keywords.ModelID,
			Model:             model,
			MaxKeywords:       maxKeywords,
			RequestsPerMinute: raw.Keywords.RequestsPerMinute,
			Timeout:           keywordsTimeout,
		},
		Cache: CacheConfig{
			RedisURL: raw.Cache.RedisURL,
			TTL:      cacheTTL,
		},
		Store:   storeCfg,
		Server:  serverCfg,
		Watches: raw.Watches,
		Watch: WatchScheduleConfig{
			Schedule:      schedule,
			SeenRetention: retention,
		},
		Notification: notification,
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationOr(s string, def time.Duration, field string) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if cfg.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive, got %v", cfg.Search.Timeout)
	}

	switch cfg.Keywords.Provider {
	case "none":
	case "monkeylearn", "openai":
		if cfg.Keywords.APIKey == "" {
			return fmt.Errorf("keywords.api_key is required when provider is %q", cfg.Keywords.Provider)
		}
	default:
		return fmt.Errorf("keywords.provider must be monkeylearn, openai or none, got %q", cfg.Keywords.Provider)
	}
	if cfg.Keywords.MaxKeywords < 0 {
		return fmt.Errorf("keywords.max_keywords must not be negative, got %d", cfg.Keywords.MaxKeywords)
	}
	if cfg.Keywords.RequestsPerMinute < 0 {
		return fmt.Errorf("keywords.requests_per_minute must not be negative, got %d", cfg.Keywords.RequestsPerMinute)
	}

	if cfg.Cache.RedisURL != "" && cfg.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", cfg.Cache.TTL)
	}

	switch cfg.Store.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required when driver is \"postgres\"")
		}
	default:
		return fmt.Errorf("store.driver must be sqlite or postgres, got %q", cfg.Store.Driver)
	}

	seen := make(map[string]bool)
	for i, w := range cfg.Watches {
		if w.Name == "" {
			return fmt.Errorf("watches[%d].name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate watch name %q", w.Name)
		}
		seen[w.Name] = true
		if w.Lat < -90 || w.Lat > 90 || w.Lon < -180 || w.Lon > 180 {
			return fmt.Errorf("watch %q: coordinates out of range (%v, %v)", w.Name, w.Lat, w.Lon)
		}
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	default:
		return fmt.Errorf("notification.type must be log or slack, got %q", cfg.Notification.Type)
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	return nil
}

// ResolvePath picks the config file: an explicit flag value wins, then the
// JOBSCOUT_CONFIG environment variable, then ./config.yaml.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("JOBSCOUT_CONFIG"); env != "" {
		return env
	}
	return "config.yaml"
}
