package redfish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNATSBucket is the key-value bucket used when NATSKVConfig.Bucket is empty.
const DefaultNATSBucket = "redfish-responses"

// NATSKVConfig configures a NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Ignored when Conn is set.
	URL string
	// Bucket name; created on first use if it does not exist.
	Bucket string
	// TTL applied to the bucket when it is created. Zero keeps values forever.
	TTL time.Duration
	// Conn is an existing connection to reuse. The cache does not close it.
	Conn *nats.Conn
}

// NATSKVCache stores entries in a JetStream key-value bucket so that several
// processes talking to the same service can share responses.
type NATSKVCache struct {
	conn     *nats.Conn
	kv       nats.KeyValue
	ownsConn bool
}

// NewNATSKVCache connects to NATS and opens (or creates) the configured bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	conn := config.Conn
	ownsConn := false

	if conn == nil {
		url := config.URL
		if url == "" {
			url = nats.DefaultURL
		}

		var err error

		conn, err = nats.Connect(url)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}

		ownsConn = true
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = DefaultNATSBucket
	}

	kv, err := openBucket(conn, bucket, config.TTL)
	if err != nil {
		if ownsConn {
			conn.Close()
		}

		return nil, err
	}

	return &NATSKVCache{
		conn:     conn,
		kv:       kv,
		ownsConn: ownsConn,
	}, nil
}

func openBucket(conn *nats.Conn, bucket string, ttl time.Duration) (nats.KeyValue, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("opening JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket: bucket,
			TTL:    ttl,
		})
	}

	if err != nil {
		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	return kv, nil
}

// Get returns the entry stored under key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	kve, err := c.kv.Get(encodeNATSKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCacheKeyNotFound, key)
		}

		return nil, fmt.Errorf("reading %s from NATS: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(kve.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCacheEntryData, err)
	}

	if entry.IsExpired() {
		_ = c.kv.Delete(encodeNATSKey(key))

		return nil, fmt.Errorf("%w: %s", ErrCacheEntryExpired, key)
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(encodeNATSKey(key), data)
	if err != nil {
		return fmt.Errorf("writing %s to NATS: %w", key, err)
	}

	return nil
}

// Delete removes key from the bucket.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(encodeNATSKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting %s from NATS: %w", key, err)
	}

	return nil
}

// Clear removes every key from the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing NATS keys: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Delete(key)
		if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
			return fmt.Errorf("deleting NATS key: %w", err)
		}
	}

	return nil
}

// Has reports whether a live entry exists for key.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close releases the NATS connection if the cache opened it.
func (c *NATSKVCache) Close() {
	if c.ownsConn {
		c.conn.Close()
	}
}

// NATS keys are limited to [-/_=.a-zA-Z0-9]; resource paths may contain anything.
func encodeNATSKey(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}
