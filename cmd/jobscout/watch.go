package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the watch daemon",
	Long:  "Polls every configured watch on the cron schedule and notifies on new postings; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"schedule", cfg.Watch.Schedule,
		"watches", len(cfg.Watches),
		"seen_retention", cfg.Watch.SeenRetention.String(),
		"keywords_provider", cfg.Keywords.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	searcher, cleanup, err := buildSearcher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build searcher: %w", err)
	}
	defer cleanup()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	pollers := buildPollers(cfg, searcher, st, n, logger)
	if len(pollers) == 0 {
		return errors.New("no watches configured")
	}

	sched := scheduler.NewScheduler(asSchedulerPollers(pollers), cfg.Watch.Schedule, st, cfg.Watch.SeenRetention, logger)
	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	logger.Info("goodbye")
	return nil
}
