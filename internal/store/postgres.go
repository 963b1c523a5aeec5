package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/jobscout/internal/model"
)

var (
	_ model.FavoriteStore = (*PostgresStore)(nil)
	_ model.SeenStore     = (*PostgresStore)(nil)
)

var postgresSchema = []string{
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
		last_favor_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS seen_items (
		item_id    TEXT PRIMARY KEY,
		first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// PostgresStore is the pgx-backed equivalent of SQLiteStore for shared deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL, verifies the connection and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) AddFavorite(ctx context.Context, userID string, item model.Item) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("adding favorite %s for %s: %w", item.ID(), userID, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO items (item_id, name, address, image_url, url) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (item_id) DO UPDATE SET
		   name = EXCLUDED.name, address = EXCLUDED.address,
		   image_url = EXCLUDED.image_url, url = EXCLUDED.url`,
		item.ID(), item.Name(), item.Address(), item.ImageURL(), item.URL(),
	); err != nil {
		return fmt.Errorf("saving item %s: %w", item.ID(), err)
	}

	// The stored keyword set is replaced, never merged.
	batch := &pgx.Batch{}
	batch.Queue("DELETE FROM keywords WHERE item_id = $1", item.ID())
	for kw := range item.Keywords() {
		batch.Queue(
			"INSERT INTO keywords (item_id, keyword) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			item.ID(), kw,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving keywords for %s: %w", item.ID(), err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO history (user_id, item_id, last_favor_time) VALUES ($1, $2, now())
		 ON CONFLICT (user_id, item_id) DO UPDATE SET last_favor_time = now()`,
		userID, item.ID(),
	); err != nil {
		return fmt.Errorf("saving favorite %s for %s: %w", item.ID(), userID, err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, itemID string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM history WHERE user_id = $1 AND item_id = $2", userID, itemID); err != nil {
		return fmt.Errorf("removing favorite %s for %s: %w", itemID, userID, err)
	}
	return nil
}

func (s *PostgresStore) GetFavoriteIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, "SELECT item_id FROM history WHERE user_id = $1", userID)
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

func (s *PostgresStore) GetFavorites(ctx context.Context, userID string) ([]model.Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT i.item_id, i.name, i.address, i.image_url, i.url, COALESCE(k.keyword, '')
		 FROM history h
		 JOIN items i ON i.item_id = h.item_id
		 LEFT JOIN keywords k ON k.item_id = i.item_id
		 WHERE h.user_id = $1
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

func (s *PostgresStore) HasSeen(ctx context.Context, itemID string) (bool, error) {
	var exists int
	err := s.pool.QueryRow(ctx, "SELECT 1 FROM seen_items WHERE item_id = $1", itemID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking seen status for %s: %w", itemID, err)
	}
	return true, nil
}

func (s *PostgresStore) MarkSeen(ctx context.Context, itemID string) error {
	if _, err := s.pool.Exec(ctx, "INSERT INTO seen_items (item_id) VALUES ($1) ON CONFLICT DO NOTHING", itemID); err != nil {
		return fmt.Errorf("marking item %s as seen: %w", itemID, err)
	}
	return nil
}

func (s *PostgresStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)
	if _, err := s.pool.Exec(ctx, "DELETE FROM seen_items WHERE first_seen < $1", cutoff); err != nil {
		return fmt.Errorf("cleaning up seen items older than %v: %w", olderThan, err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
