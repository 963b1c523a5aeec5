package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var watchesCmd = &cobra.Command{
	Use:   "watches",
	Short: "List all configured watches",
	Long:  "Reads the config and prints a table of all configured watches.",
	RunE:  runWatches,
}

func init() {
	rootCmd.AddCommand(watchesCmd)
}

func runWatches(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %-22s %-15s %s\n", "Watch", "Location", "Keyword", "Filters")
	fmt.Println(strings.Repeat("─", 80))

	for _, w := range cfg.Watches {
		keyword := w.Keyword
		if keyword == "" {
			keyword = cfg.Search.DefaultKeyword + " (default)"
		}
		var filters []string
		if len(w.KeywordsAny) > 0 {
			filters = append(filters, "keywords="+strings.Join(w.KeywordsAny, "|"))
		}
		if len(w.Locations) > 0 {
			filters = append(filters, "locations="+strings.Join(w.Locations, "|"))
		}
		fmt.Printf("%-20s %-22s %-15s %s\n", w.Name, fmt.Sprintf("%.4f,%.4f", w.Lat, w.Lon), keyword, strings.Join(filters, " "))
	}

	fmt.Printf("\nTotal: %d watches, schedule %s\n", len(cfg.Watches), cfg.Watch.Schedule)
	return nil
}
