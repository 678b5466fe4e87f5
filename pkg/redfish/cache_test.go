package redfish_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	entry := &redfish.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "abc123",
	}

	err := cache.Set(ctx, "/redfish/v1/Systems", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "/redfish/v1/Systems")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, redfish.ErrCacheKeyNotFound)
	assert.Contains(t, err.Error(), "key not found")
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	entry := &redfish.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	require.NoError(t, cache.Set(ctx, "key1", entry))

	_, err := cache.Get(ctx, "key1")
	require.ErrorIs(t, err, redfish.ErrCacheEntryExpired)
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_NeverExpires(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", &redfish.CacheEntry{Data: []byte("forever")}))

	retrieved, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, []byte("forever"), retrieved.Data)
}

func TestMemoryCache_Delete(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", &redfish.CacheEntry{Data: []byte("test data")}))
	assert.True(t, cache.Has(ctx, "key1"))

	require.NoError(t, cache.Delete(ctx, "key1"))
	assert.False(t, cache.Has(ctx, "key1"))

	require.NoError(t, cache.Delete(ctx, "never-set"))
}

func TestMemoryCache_Clear(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cache.Set(ctx, string(rune('a'+i)), &redfish.CacheEntry{Data: []byte("test data")})
	}

	assert.True(t, cache.Has(ctx, "a"))
	assert.True(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))

	require.NoError(t, cache.Clear(ctx))

	assert.False(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
	assert.False(t, cache.Has(ctx, "c"))
}

func TestMemoryCache_MaxSize(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cache.Set(ctx, string(rune('a'+i)), &redfish.CacheEntry{Data: []byte("test data")})
	}

	assert.Equal(t, 2, cache.Len())
	assert.False(t, cache.Has(ctx, "a"), "the first stored entry is evicted")
	assert.True(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))

	// Overwriting an existing key does not evict.
	_ = cache.Set(ctx, "c", &redfish.CacheEntry{Data: []byte("updated")})
	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Has(ctx, "b"))
}

func TestMemoryCache_Cleanup(t *testing.T) {
	t.Parallel()

	cache := redfish.NewMemoryCache(10)
	ctx := context.Background()

	_ = cache.Set(ctx, "expired", &redfish.CacheEntry{
		Data:      []byte("expired"),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	})
	_ = cache.Set(ctx, "valid", &redfish.CacheEntry{
		Data:      []byte("valid"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
	})

	cache.Cleanup()

	assert.Equal(t, 1, cache.Len())
	assert.True(t, cache.Has(ctx, "valid"))
	assert.False(t, cache.Has(ctx, "expired"))
}

func TestNoOpCache(t *testing.T) {
	t.Parallel()

	cache := redfish.NewNoOpCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", &redfish.CacheEntry{Data: []byte("x")}))

	_, err := cache.Get(ctx, "key")
	require.ErrorIs(t, err, redfish.ErrCacheDisabled)
	assert.False(t, cache.Has(ctx, "key"))
	require.NoError(t, cache.Delete(ctx, "key"))
	require.NoError(t, cache.Clear(ctx))
}
