package redfish

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
)

// Cache is a key/value store for serialized responses.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is a single cached value. A zero ExpiresAt never expires.
type CacheEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
	ETag      string    `json:"etag,omitempty"`
}

// IsExpired reports whether the entry has passed its expiry time.
func (e *CacheEntry) IsExpired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// CacheOptions are applied by the caching connector to every entry it stores.
type CacheOptions struct {
	// TTL bounds how long a response stays cached. Zero keeps it until reset.
	TTL time.Duration
	// MaxSize is the maximum number of entries for backends that enforce one.
	MaxSize int
}

// DefaultCacheOptions returns options that keep entries until they are reset.
func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		TTL:     0,
		MaxSize: constants.DefaultCacheSize,
	}
}

type memoryItem struct {
	entry *CacheEntry
	seq   uint64
}

// MemoryCache is an in-process Cache bounded by entry count. When full, the entry
// stored first is evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memoryItem
	maxSize int
	seq     uint64
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
// A non-positive maxSize means unbounded.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryItem),
		maxSize: maxSize,
	}
}

// Get returns the entry stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
	}

	if item.entry.IsExpired() {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return item.entry, nil
}

// Set stores entry under key, evicting the oldest entry if the cache is full.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	c.seq++
	c.items[key] = memoryItem{entry: entry, seq: c.seq}

	return nil
}

// Delete removes key from the cache. Missing keys are not an error.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()

	return nil
}

// Has reports whether a live entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]

	return ok && !item.entry.IsExpired()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, item := range c.items {
		if item.entry.IsExpired() {
			delete(c.items, key)
		}
	}
}

// evictOldest must be called with the write lock held.
func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)

	for key, item := range c.items {
		if !found || item.seq < oldestSeq {
			oldestKey, oldestSeq, found = key, item.seq, true
		}
	}

	if found {
		delete(c.items, oldestKey)
	}
}

// NoOpCache is a cache that does nothing (no caching).
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always returns an error (nothing cached).
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}
