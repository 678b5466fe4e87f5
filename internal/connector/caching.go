package connector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/redfish-client/internal/constants"
	"github.com/fivetwenty-io/redfish-client/pkg/redfish"
)

// cachedResponse is the serialized form of a response stored in a redfish.Cache.
type cachedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Raw     []byte            `json:"raw"`
}

// CachingConnector decorates an AuthConnector with a path-keyed cache of successful GET
// responses. Every other call passes through.
type CachingConnector struct {
	redfish.AuthConnector

	cache   redfish.Cache
	options *redfish.CacheOptions
	logger  redfish.Logger
}

// CachingOption configures a CachingConnector.
type CachingOption func(*CachingConnector)

// WithCacheOptions sets the options applied to stored entries.
func WithCacheOptions(options *redfish.CacheOptions) CachingOption {
	return func(c *CachingConnector) {
		if options != nil {
			c.options = options
		}
	}
}

// WithCacheLogger sets the logger for cache failures.
func WithCacheLogger(logger redfish.Logger) CachingOption {
	return func(c *CachingConnector) {
		c.logger = logger
	}
}

// NewCaching wraps next with cache. A nil cache gets an unbounded memory cache.
func NewCaching(next redfish.AuthConnector, cache redfish.Cache, opts ...CachingOption) *CachingConnector {
	if cache == nil {
		cache = redfish.NewMemoryCache(0)
	}

	connector := &CachingConnector{
		AuthConnector: next,
		cache:         cache,
		options:       redfish.DefaultCacheOptions(),
	}

	for _, opt := range opts {
		opt(connector)
	}

	return connector
}

// Get returns the cached response for path, or fetches it and caches it when the
// status is exactly 200.
func (c *CachingConnector) Get(ctx context.Context, path string) (*redfish.Response, error) {
	entry, err := c.cache.Get(ctx, path)
	if err == nil {
		resp, decodeErr := decodeResponse(entry.Data)
		if decodeErr == nil {
			return resp, nil
		}

		c.logWarn("discarding unreadable cache entry", map[string]interface{}{"path": path, "error": decodeErr.Error()})
	} else if !errors.Is(err, redfish.ErrCacheKeyNotFound) && !errors.Is(err, redfish.ErrCacheEntryExpired) &&
		!errors.Is(err, redfish.ErrCacheDisabled) {
		c.logWarn("cache lookup failed", map[string]interface{}{"path": path, "error": err.Error()})
	}

	resp, err := c.AuthConnector.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	if resp.Status != constants.HTTPStatusOK {
		return resp, nil
	}

	data, err := encodeResponse(resp)
	if err != nil {
		return nil, err
	}

	entry = &redfish.CacheEntry{Data: data}
	if c.options.TTL > 0 {
		entry.ExpiresAt = time.Now().Add(c.options.TTL)
	}

	err = c.cache.Set(ctx, path, entry)
	if err != nil {
		c.logWarn("cache store failed", map[string]interface{}{"path": path, "error": err.Error()})
	}

	return resp, nil
}

// Reset drops the entry for path, or every entry when path is empty.
func (c *CachingConnector) Reset(ctx context.Context, path string) error {
	if path == "" {
		err := c.cache.Clear(ctx)
		if err != nil {
			return fmt.Errorf("clearing response cache: %w", err)
		}

		return nil
	}

	err := c.cache.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("dropping cached response for %s: %w", path, err)
	}

	return nil
}

func (c *CachingConnector) logWarn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

func encodeResponse(resp *redfish.Response) ([]byte, error) {
	data, err := json.Marshal(cachedResponse{
		Status:  resp.Status,
		Headers: resp.Headers,
		Raw:     resp.Raw,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding cached response: %w", err)
	}

	return data, nil
}

func decodeResponse(data []byte) (*redfish.Response, error) {
	var cached cachedResponse

	err := json.Unmarshal(data, &cached)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", redfish.ErrInvalidCacheEntryData, err)
	}

	resp := &redfish.Response{
		Status:  cached.Status,
		Headers: cached.Headers,
		Raw:     cached.Raw,
	}

	if len(cached.Raw) > 0 {
		var body interface{}
		if json.Unmarshal(cached.Raw, &body) == nil {
			resp.JSON = body
		}
	}

	return resp, nil
}
