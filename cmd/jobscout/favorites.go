package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	favUserID string
	favFile   string
	favJSON   bool
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage a user's favorite postings",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites, most recent first",
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Save a posting as a favorite",
	Long:  "Reads one item view (as printed by `search --json`) from --file or stdin and saves it.",
	RunE:  runFavoritesAdd,
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove ITEM_ID",
	Short: "Remove a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesRemove,
}

func init() {
	favoritesCmd.PersistentFlags().StringVarP(&favUserID, "user", "u", "", "user ID")
	favoritesCmd.MarkPersistentFlagRequired("user")
	favoritesListCmd.Flags().BoolVar(&favJSON, "json", false, "print the JSON item views")
	favoritesAddCmd.Flags().StringVarP(&favFile, "file", "f", "", "item JSON file (default stdin)")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd)
	rootCmd.AddCommand(favoritesCmd)
}

// withStore loads config, opens the store and runs fn against it.
func withStore(fn func(ctx context.Context, st model.FavoriteStore) error) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	return fn(ctx, st)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.FavoriteStore) error {
		items, err := st.GetFavorites(ctx, favUserID)
		if err != nil {
			return err
		}
		if favJSON {
			views := make([]model.ItemView, len(items))
			for i, it := range items {
				views[i] = model.FavoriteView(it)
			}
			return printJSON(views)
		}
		all := make(map[string]bool, len(items))
		for _, it := range items {
			all[it.ID()] = true
		}
		printItems(items, all)
		return nil
	})
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if favFile != "" {
		f, err := os.Open(favFile)
		if err != nil {
			return fmt.Errorf("opening item file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var view model.ItemView
	if err := json.NewDecoder(r).Decode(&view); err != nil {
		return fmt.Errorf("decoding item: %w", err)
	}
	if view.ItemID == "" {
		return fmt.Errorf("item has no item_id")
	}

	return withStore(func(ctx context.Context, st model.FavoriteStore) error {
		if err := st.AddFavorite(ctx, favUserID, view.Item()); err != nil {
			return err
		}
		fmt.Printf("Saved %s for %s\n", view.ItemID, favUserID)
		return nil
	})
}

func runFavoritesRemove(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st model.FavoriteStore) error {
		if err := st.RemoveFavorite(ctx, favUserID, args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s for %s\n", args[0], favUserID)
		return nil
	})
}
