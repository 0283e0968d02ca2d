package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portfolio:cache:"

// RedisStore keeps entries in Redis. Redis expiry is set to the entry expiry, so an
// expired entry may already be gone when the cache looks for it; both read as a miss.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to the Redis instance at url
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func redisKey(userID uuid.UUID, key string) string {
	return redisKeyPrefix + userID.String() + ":" + key
}

// GetEntry implements Store
func (s *RedisStore) GetEntry(ctx context.Context, userID uuid.UUID, key string) (*Entry, error) {
	raw, err := s.rdb.Get(ctx, redisKey(userID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	return &entry, nil
}

// UpsertEntry implements Store
func (s *RedisStore) UpsertEntry(ctx context.Context, entry *Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", entry.Key, err)
	}
	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.rdb.Set(ctx, redisKey(entry.UserID, entry.Key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// DeleteEntry implements Store
func (s *RedisStore) DeleteEntry(ctx context.Context, userID uuid.UUID, key string) error {
	if err := s.rdb.Del(ctx, redisKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
