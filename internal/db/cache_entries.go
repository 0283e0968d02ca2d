package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/portfolio-generator/internal/cache"
)

// -----------------------------------------------------------------------------
// External Data Cache Methods (implements cache.Store)
// -----------------------------------------------------------------------------

var _ cache.Store = (*DB)(nil)

// GetEntry returns the cache entry for (userID, key), or nil when absent. Expiry is not checked here.
func (db *DB) GetEntry(ctx context.Context, userID uuid.UUID, key string) (*cache.Entry, error) {
	entry := cache.Entry{UserID: userID, Key: key}
	var data []byte
	err := db.pool.QueryRow(ctx,
		`SELECT cache_data, expires_at FROM external_data_cache
		 WHERE user_id = $1 AND cache_key = $2`,
		userID, key,
	).Scan(&data, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}
	entry.Data = data
	return &entry, nil
}

// UpsertEntry writes an entry, replacing any previous one for the same key
func (db *DB) UpsertEntry(ctx context.Context, entry *cache.Entry) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO external_data_cache (user_id, cache_key, cache_data, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, cache_key)
		 DO UPDATE SET cache_data = EXCLUDED.cache_data, expires_at = EXCLUDED.expires_at, created_at = NOW()`,
		entry.UserID, entry.Key, []byte(entry.Data), entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// DeleteEntry removes an entry. Deleting a missing entry is not an error.
func (db *DB) DeleteEntry(ctx context.Context, userID uuid.UUID, key string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM external_data_cache WHERE user_id = $1 AND cache_key = $2`,
		userID, key,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}
