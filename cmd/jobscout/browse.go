package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/browse"
	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/model"
)

var (
	browseUserID string
	browseLat    float64
	browseLon    float64
	browseTerm   string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse postings interactively (TUI)",
	Long:  "Shows the watch picker (or searches --lat/--lon directly), then launches the split-pane browser.",
	RunE:  runBrowseCmd,
}

func init() {
	browseCmd.Flags().StringVarP(&browseUserID, "user", "u", "", "user whose favorites are shown and edited")
	browseCmd.Flags().Float64Var(&browseLat, "lat", 0, "latitude (skips the picker together with --lon)")
	browseCmd.Flags().Float64Var(&browseLon, "lon", 0, "longitude")
	browseCmd.Flags().StringVar(&browseTerm, "term", "", "search keyword")
	rootCmd.AddCommand(browseCmd)
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Any log output once the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	searcher, cleanup, err := buildSearcher(ctx, cfg, silentLogger)
	if err != nil {
		logger.Error("failed to build searcher", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var st dataStore
	if browseUserID != "" {
		if st, err = openStore(ctx, cfg); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	}

	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		q := model.SearchQuery{Lat: browseLat, Lon: browseLon, Keyword: browseTerm}
		return browseOnce(ctx, fmt.Sprintf("%.4f,%.4f", q.Lat, q.Lon), q, searcher, st)
	}
	runBrowse(ctx, cfg, searcher, st)
	return nil
}

func runBrowse(ctx context.Context, cfg *config.Config, searcher model.Searcher, st dataStore) {
	if len(cfg.Watches) == 0 {
		fmt.Println("No watches in config; use --lat/--lon.")
		return
	}

	for {
		choice, err := browse.RunWatchPicker(cfg.Watches)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice < 0 {
			return
		}
		w := cfg.Watches[choice]
		q := model.SearchQuery{Lat: w.Lat, Lon: w.Lon, Keyword: w.Keyword}
		if err := browseOnce(ctx, w.Name, q, searcher, st); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		// loop → back to picker
	}
}

func browseOnce(ctx context.Context, label string, q model.SearchQuery, searcher model.Searcher, st dataStore) error {
	items, err := browse.RunLoader(label, func(ctx context.Context) ([]model.Item, error) {
		return searcher.Search(ctx, q.Lat, q.Lon, q.Keyword)
	})
	if err != nil {
		return fmt.Errorf("searching %s: %w", label, err)
	}

	opts := browse.Options{UserID: browseUserID}
	if st != nil {
		favs, err := st.GetFavorites(ctx, browseUserID)
		if err != nil {
			return fmt.Errorf("loading favorites: %w", err)
		}
		opts.Store = st
		opts.Favorites = favs
	}
	return browse.RunBrowser(items, opts)
}
