package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	_ model.FavoriteStore = (*SQLiteStore)(nil)
	_ model.SeenStore     = (*SQLiteStore)(nil)
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		item_id   TEXT PRIMARY KEY,
		name      TEXT NOT NULL DEFAULT '',
		address   TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		url       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS keywords (
		item_id TEXT NOT NULL REFERENCES items(item_id) ON DELETE CASCADE,
		keyword TEXT NOT NULL,
		PRIMARY KEY (item_id, keyword)
	)`,
	`CREATE TABLE IF NOT EXISTS history (
		user_id         TEXT NOT NULL,
		item_id         TEXT NOT NULL REFERENCES items(item_id) ON DELETE CASCADE,
		last_favor_time DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS seen_items (
		item_id    TEXT PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// SQLiteStore persists favorites and watch dedup state in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY under the
	// HTTP server's concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// AddFavorite saves item and records it as a favorite of userID. Saving an
// item that is already stored overwrites its fields and keywords. Saving the
// same favorite twice refreshes its timestamp.
func (s *SQLiteStore) AddFavorite(ctx context.Context, userID string, item model.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("adding favorite %s for %s: %w", item.ID(), userID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO items (item_id, name, address, image_url, url) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(item_id) DO UPDATE SET
		   name = excluded.name, address = excluded.address,
		   image_url = excluded.image_url, url = excluded.url`,
		item.ID(), item.Name(), item.Address(), item.ImageURL(), item.URL(),
	); err != nil {
		return fmt.Errorf("saving item %s: %w", item.ID(), err)
	}

	// The stored keyword set is replaced, never merged.
	if _, err := tx.ExecContext(ctx, "DELETE FROM keywords WHERE item_id = ?", item.ID()); err != nil {
		return fmt.Errorf("clearing keywords for %s: %w", item.ID(), err)
	}
	for kw := range item.Keywords() {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO keywords (item_id, keyword) VALUES (?, ?)",
			item.ID(), kw,
		); err != nil {
			return fmt.Errorf("saving keyword %q for %s: %w", kw, item.ID(), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (user_id, item_id, last_favor_time) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, item_id) DO UPDATE SET last_favor_time = excluded.last_favor_time`,
		userID, item.ID(), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("saving favorite %s for %s: %w", item.ID(), userID, err)
	}

	return tx.Commit()
}

// RemoveFavorite drops the favorite link. The item row is kept for other users.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, itemID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM history WHERE user_id = ? AND item_id = ?", userID, itemID)
	if err != nil {
		return fmt.Errorf("removing favorite %s for %s: %w", itemID, userID, err)
	}
	return nil
}

// GetFavoriteIDs returns the set of item IDs userID has favorited.
func (s *SQLiteStore) GetFavoriteIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT item_id FROM history WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorite ids for %s: %w", userID, err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning favorite id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// GetFavorites returns userID's favorite items, most recently favorited first.
func (s *SQLiteStore) GetFavorites(ctx context.Context, userID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.item_id, i.name, i.address, i.image_url, i.url, COALESCE(k.keyword, '')
		 FROM history h
		 JOIN items i ON i.item_id = h.item_id
		 LEFT JOIN keywords k ON k.item_id = i.item_id
		 WHERE h.user_id = ?
		 ORDER BY h.last_favor_time DESC, i.item_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing favorites for %s: %w", userID, err)
	}
	defer rows.Close()

	var acc favoriteAccumulator
	for rows.Next() {
		var r favoriteRow
		if err := rows.Scan(&r.id, &r.name, &r.address, &r.imageURL, &r.url, &r.keyword); err != nil {
			return nil, fmt.Errorf("scanning favorite: %w", err)
		}
		acc.add(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing favorites for %s: %w", userID, err)
	}
	return acc.items(), nil
}

// HasSeen returns true if the given item ID has already been recorded.
func (s *SQLiteStore) HasSeen(ctx context.Context, itemID string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM seen_items WHERE item_id = ?", itemID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", itemID, err)
	}
	return true, nil
}

// MarkSeen records an item ID as seen. If it already exists the call is a no-op.
func (s *SQLiteStore) MarkSeen(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO seen_items (item_id, first_seen) VALUES (?, ?)", itemID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marking item %s as seen: %w", itemID, err)
	}
	return nil
}

// Cleanup deletes seen entries older than the given duration.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := s.db.ExecContext(ctx, "DELETE FROM seen_items WHERE first_seen < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up seen items older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
