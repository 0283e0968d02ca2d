package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

// failingStore returns errors for every call
type failingStore struct{}

func (failingStore) GetEntry(context.Context, uuid.UUID, string) (*Entry, error) {
	return nil, errors.New("store down")
}
func (failingStore) UpsertEntry(context.Context, *Entry) error { return errors.New("store down") }
func (failingStore) DeleteEntry(context.Context, uuid.UUID, string) error {
	return errors.New("store down")
}

func newTestCache() (*Cache, *MemoryStore, *fakeClock) {
	store := NewMemoryStore()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(store, nil).WithClock(clock.now), store, clock
}

func TestCache_SetGet(t *testing.T) {
	c, _, _ := newTestCache()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, c.Set(ctx, user, KeyRepositories, []string{"a", "b"}, TTLRepositories))

	data, ok := c.Get(ctx, user, KeyRepositories)
	require.True(t, ok)
	assert.JSONEq(t, `["a","b"]`, string(data))
}

func TestCache_ScopedPerUser(t *testing.T) {
	c, _, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, uuid.New(), KeyUserData, "x", TTLUserData))

	_, ok := c.Get(ctx, uuid.New(), KeyUserData)
	assert.False(t, ok)
}

func TestCache_ExpiredGetIsMissAndEvicts(t *testing.T) {
	c, store, clock := newTestCache()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, c.Set(ctx, user, RepoKey("api"), map[string]int{"stars": 1}, time.Hour))

	clock.t = clock.t.Add(time.Hour + time.Nanosecond)
	_, ok := c.Get(ctx, user, RepoKey("api"))
	assert.False(t, ok)

	entry, err := store.GetEntry(ctx, user, RepoKey("api"))
	require.NoError(t, err)
	assert.Nil(t, entry, "expired entry should be evicted on read")
}

func TestCache_ExactExpiryStillHits(t *testing.T) {
	c, _, clock := newTestCache()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, c.Set(ctx, user, KeyUserData, 1, time.Hour))
	clock.t = clock.t.Add(time.Hour)

	_, ok := c.Get(ctx, user, KeyUserData)
	assert.True(t, ok)
}

func TestCache_SetOverwrites(t *testing.T) {
	c, store, _ := newTestCache()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, c.Set(ctx, user, KeyUserData, "first", TTLUserData))
	require.NoError(t, c.Set(ctx, user, KeyUserData, "second", TTLUserData))

	data, ok := c.Get(ctx, user, KeyUserData)
	require.True(t, ok)
	assert.JSONEq(t, `"second"`, string(data))
	assert.Equal(t, 1, store.Len())
}

func TestCache_Invalidate(t *testing.T) {
	c, _, _ := newTestCache()
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, c.Set(ctx, user, KeyUserData, 1, TTLUserData))
	require.NoError(t, c.Invalidate(ctx, user, KeyUserData))

	_, ok := c.Get(ctx, user, KeyUserData)
	assert.False(t, ok)
}

func TestGetOrFetch_MissThenHit(t *testing.T) {
	c, _, _ := newTestCache()
	ctx := context.Background()
	user := uuid.New()
	calls := 0
	fetch := func(context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	v, fromCache, err := GetOrFetch(ctx, c, user, KeyRepositories, TTLRepositories, fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, []int{1, 2, 3}, v)

	v, fromCache, err = GetOrFetch(ctx, c, user, KeyRepositories, TTLRepositories, fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, []int{1, 2, 3}, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrFetch_FetchErrorNotCached(t *testing.T) {
	c, store, _ := newTestCache()
	ctx := context.Background()

	_, _, err := GetOrFetch(ctx, c, uuid.New(), KeyUserData, TTLUserData, func(context.Context) (string, error) {
		return "", errors.New("rate limited")
	})
	assert.EqualError(t, err, "rate limited")
	assert.Equal(t, 0, store.Len())
}

func TestGetOrFetch_StoreFailureFallsThrough(t *testing.T) {
	c := New(failingStore{}, nil)

	v, fromCache, err := GetOrFetch(context.Background(), c, uuid.New(), KeyUserData, TTLUserData, func(context.Context) (string, error) {
		return "live", nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "live", v)
}

func TestGetOrFetch_UndecodablePayloadRefetches(t *testing.T) {
	c, _, _ := newTestCache()
	ctx := context.Background()
	user := uuid.New()
	require.NoError(t, c.Set(ctx, user, KeyUserData, "not-an-object", TTLUserData))

	type profile struct{ Login string }
	v, fromCache, err := GetOrFetch(ctx, c, user, KeyUserData, TTLUserData, func(context.Context) (profile, error) {
		return profile{Login: "octocat"}, nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "octocat", v.Login)
}

func TestGetOrFetch_NilCache(t *testing.T) {
	var c *Cache
	v, fromCache, err := GetOrFetch(context.Background(), c, uuid.New(), KeyUserData, TTLUserData, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 7, v)
}

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping integration test: REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, url)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	user := uuid.New()
	entry := &Entry{UserID: user, Key: KeyUserData, Data: []byte(`{"a":1}`), ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.UpsertEntry(ctx, entry))

	got, err := store.GetEntry(ctx, user, KeyUserData)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"a":1}`, string(got.Data))

	require.NoError(t, store.DeleteEntry(ctx, user, KeyUserData))
	got, err = store.GetEntry(ctx, user, KeyUserData)
	require.NoError(t, err)
	assert.Nil(t, got)
}
