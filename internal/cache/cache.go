// Package cache provides the per-user, time-boxed cache for external API results.
// The cache is advisory: store errors are logged and treated as misses, never returned
// to the fetch that consulted it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Semantic cache keys
const (
	KeyUserData             = "user_data"
	KeyRepositories         = "repositories"
	KeyContributionPatterns = "contribution_patterns"
	repoKeyPrefix           = "repo_"
)

// TTLs by data volatility
const (
	TTLUserData             = 24 * time.Hour
	TTLRepositories         = 12 * time.Hour
	TTLRepoDetails          = 24 * time.Hour
	TTLContributionPatterns = 24 * time.Hour
)

// RepoKey returns the cache key for one repository's details
func RepoKey(name string) string {
	return repoKeyPrefix + name
}

// Entry is one cached payload. There is one entry per (UserID, Key).
type Entry struct {
	UserID    uuid.UUID       `json:"user_id"`
	Key       string          `json:"cache_key"`
	Data      json.RawMessage `json:"cache_data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now
func (e *Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Store is the backing storage for cache entries. GetEntry returns nil, nil when absent
// and does not look at expiry.
type Store interface {
	GetEntry(ctx context.Context, userID uuid.UUID, key string) (*Entry, error)
	UpsertEntry(ctx context.Context, entry *Entry) error
	DeleteEntry(ctx context.Context, userID uuid.UUID, key string) error
}

// Cache applies TTL and lazy eviction on top of a Store
type Cache struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// New creates a cache over store
func New(store Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: store, now: time.Now, logger: logger}
}

// WithClock returns a copy of the cache that reads time from now
func (c *Cache) WithClock(now func() time.Time) *Cache {
	cp := *c
	cp.now = now
	return &cp
}

// Get returns the payload for (userID, key). An expired entry is a miss and is deleted.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID, key string) (json.RawMessage, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	entry, err := c.store.GetEntry(ctx, userID, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.Stringer("user_id", userID), zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if entry == nil {
		return nil, false
	}
	if entry.Expired(c.now()) {
		if err := c.Invalidate(ctx, userID, key); err != nil {
			c.logger.Warn("cache eviction failed", zap.Stringer("user_id", userID), zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return entry.Data, true
}

// Set stores payload under (userID, key) for ttl, replacing any prior entry
func (c *Cache) Set(ctx context.Context, userID uuid.UUID, key string, payload any, ttl time.Duration) error {
	if c == nil || c.store == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload %s: %w", key, err)
	}
	return c.store.UpsertEntry(ctx, &Entry{
		UserID:    userID,
		Key:       key,
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Invalidate removes the entry for (userID, key)
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID, key string) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.DeleteEntry(ctx, userID, key)
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its result.
// fromCache reports whether the value came from the cache. fetch errors are returned
// unchanged and never cached.
func GetOrFetch[T any](ctx context.Context, c *Cache, userID uuid.UUID, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (value T, fromCache bool, err error) {
	if data, ok := c.Get(ctx, userID, key); ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, true, nil
		}
		// Payload shape changed; fall through to a live fetch.
		c.logger.Debug("cache payload did not decode", zap.String("key", key))
	}

	value, err = fetch(ctx)
	if err != nil {
		return value, false, err
	}
	if err := c.Set(ctx, userID, key, value, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.Stringer("user_id", userID), zap.String("key", key), zap.Error(err))
	}
	return value, false, nil
}
