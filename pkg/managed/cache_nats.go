package managed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSKVConfig configures a JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server. Defaults to nats.DefaultURL.
	URL string `mapstructure:"url" yaml:"url,omitempty"`

	// Bucket name. Defaults to constants.DefaultNATSBucket.
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// TTL bounds the lifetime of every entry in the bucket.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl,omitempty"`
}

// NATSKVCache stores entries in a JetStream key-value bucket. Keys are hashed
// because KV keys only allow a restricted character set.
type NATSKVCache struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSKVCache connects to NATS and opens (or creates) the bucket.
func NewNATSKVCache(ctx context.Context, config *NATSKVConfig) (*NATSKVCache, error) {
	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	stream, err := jetstream.New(conn)
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := stream.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucket,
		TTL:    config.TTL,
	})
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("opening KV bucket %s: %w", bucket, err)
	}

	return &NATSKVCache{conn: conn, kv: kv}, nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))

	return hex.EncodeToString(sum[:])
}

// Get returns the entry for key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	value, err := c.kv.Get(ctx, hashKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return nil, fmt.Errorf("failed to get from NATS KV: %w", err)
	}

	var entry CacheEntry

	err = json.Unmarshal(value.Value(), &entry)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	if entry.Expired() {
		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	_, err = c.kv.Put(ctx, hashKey(key), data)
	if err != nil {
		return fmt.Errorf("failed to put to NATS KV: %w", err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(ctx, hashKey(key))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete from NATS KV: %w", err)
	}

	return nil
}

// Clear purges every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("failed to list NATS KV keys: %w", err)
	}

	for _, key := range keys {
		err = c.kv.Purge(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to purge NATS KV key: %w", err)
		}
	}

	return nil
}

// Has reports whether key exists.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the NATS connection.
func (c *NATSKVCache) Close() {
	c.conn.Close()
}
