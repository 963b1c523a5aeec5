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

	"github.com/amishk599/jobscout/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check [WATCH]",
	Short: "Poll watches once, notify matches, exit",
	Long:  "One-shot poll of every watch (or the named one). Does not write to the seen store.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("check mode: no postings will be marked as seen")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	searcher, cleanup, err := buildSearcher(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build searcher: %w", err)
	}
	defer cleanup()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	n := setupNotifier(cfg, httpClient, logger)

	pollers := buildPollers(cfg, searcher, store.NewNopStore(), n, logger)
	if len(pollers) == 0 {
		return errors.New("no watches configured")
	}

	ran := 0
	for _, p := range pollers {
		if len(args) == 1 && p.WatchName() != args[0] {
			continue
		}
		ran++
		if err := p.Poll(ctx); err != nil {
			logger.Error("poll failed", "watch", p.WatchName(), "error", err)
		}
	}
	if ran == 0 {
		return fmt.Errorf("unknown watch %q", args[0])
	}

	logger.Info("check complete", "watches", ran)
	return nil
}
