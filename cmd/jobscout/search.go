package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	searchLat    float64
	searchLon    float64
	searchTerm   string
	searchUserID string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search postings near a location and print them",
	Long:  "Runs one aggregation pass (fetch, extract keywords, assemble) and prints the items.",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Float64Var(&searchLat, "lat", 0, "latitude")
	searchCmd.Flags().Float64Var(&searchLon, "lon", 0, "longitude")
	searchCmd.Flags().StringVar(&searchTerm, "term", "", "search keyword (default from search.default_keyword)")
	searchCmd.Flags().StringVar(&searchUserID, "user", "", "mark results favorited by this user")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the JSON item views")
	searchCmd.MarkFlagRequired("lat")
	searchCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	searcher, cleanup, err := buildSearcher(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build searcher", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	items, err := searcher.Search(ctx, searchLat, searchLon, searchTerm)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	var favIDs map[string]bool
	if searchUserID != "" {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		if favIDs, err = st.GetFavoriteIDs(ctx, searchUserID); err != nil {
			return fmt.Errorf("load favorites: %w", err)
		}
	}

	if searchJSON {
		views := make([]model.ItemView, len(items))
		for i, it := range items {
			if favIDs != nil {
				views[i] = model.MarkedView(it, favIDs[it.ID()])
			} else {
				views[i] = it.View()
			}
		}
		return printJSON(views)
	}

	printItems(items, favIDs)
	return nil
}

func printItems(items []model.Item, favIDs map[string]bool) {
	if len(items) == 0 {
		fmt.Println("No postings found.")
		return
	}
	fmt.Printf("%-3s %-40s %-25s %s\n", "", "Title", "Location", "Keywords")
	fmt.Println(strings.Repeat("─", 100))
	for _, it := range items {
		mark := ""
		if favIDs[it.ID()] {
			mark = "★"
		}
		fmt.Printf("%-3s %-40s %-25s %s\n", mark, truncate(it.Name(), 40), truncate(it.Address(), 25), strings.Join(it.Keywords().Sorted(), ", "))
	}
	fmt.Printf("\nTotal: %d postings\n", len(items))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
