package managed_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/hac/pkg/managed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a JetStream-enabled server, e.g. `nats-server -js`.
func TestNATSKVCache(t *testing.T) {
	t.Parallel()

	url := os.Getenv("HAC_NATS_URL")
	if url == "" {
		t.Skip("HAC_NATS_URL not set")
	}

	ctx := context.Background()

	cache, err := managed.NewNATSKVCache(ctx, &managed.NATSKVConfig{URL: url, Bucket: "hac_cache_test"})
	require.NoError(t, err)

	defer cache.Close()

	require.NoError(t, cache.Clear(ctx))

	_, err = cache.Get(ctx, "GET http://api/users?page=1")
	require.ErrorIs(t, err, managed.ErrKeyNotFound)

	require.NoError(t, cache.Set(ctx, "GET http://api/users?page=1", &managed.CacheEntry{
		StatusCode: 200,
		Data:       []byte(`[]`),
		ExpiresAt:  time.Now().Add(time.Minute),
	}))

	entry, err := cache.Get(ctx, "GET http://api/users?page=1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), entry.Data)

	require.NoError(t, cache.Delete(ctx, "GET http://api/users?page=1"))
	assert.False(t, cache.Has(ctx, "GET http://api/users?page=1"))
}
