package managed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	backend "github.com/redis/go-redis/v9"
)

// RedisCache stores entries as JSON under a key prefix.
type RedisCache struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithPrefix sets the key prefix. An empty prefix keeps the default.
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// NewRedisCache creates a cache from an existing client.
func NewRedisCache(client *backend.Client, opts ...RedisOption) *RedisCache {
	cache := &RedisCache{
		client: client,
		prefix: constants.DefaultRedisPrefix,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

func (c *RedisCache) key(key string) string {
	return c.prefix + key
}

// Get returns the entry for key.
func (c *RedisCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(val, &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	if entry.Expired() {
		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return &entry, nil
}

// Set stores entry with a Redis TTL matching its expiry.
func (c *RedisCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	var ttl time.Duration
	if !entry.ExpiresAt.IsZero() {
		ttl = time.Until(entry.ExpiresAt)
		if ttl <= 0 {
			return nil
		}
	}

	err = c.client.Set(ctx, c.key(key), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.key(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}

	return nil
}

// Clear removes every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	err := iter.Err()
	if err != nil {
		return fmt.Errorf("failed to scan redis: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	err = c.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed to clear redis: %w", err)
	}

	return nil
}

// Has reports whether key exists.
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	count, err := c.client.Exists(ctx, c.key(key)).Result()

	return err == nil && count > 0
}
