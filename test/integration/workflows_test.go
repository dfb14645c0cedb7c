//go:build integration

package integration

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFetchWorkflow drives plain fetch calls through the CLI.
func TestFetchWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingBinary(t)

	api := NewUsersAPI(t)
	runner := NewCommandRunner(t, config, fmt.Sprintf("base_url: %s\ntoken: integration-token\n", api.URL))

	// 1. GET with path param, cookie and bearer token
	stdout, stderr, err := runner.Run("call", "users", ":id", "--param", "id=42", "--cookie", "session=s1", "--select", "@this")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, `"id":"42"`)
	assert.Contains(t, stdout, `session=s1; Path=/`)
	assert.Contains(t, stdout, `Bearer integration-token`)

	// 2. POST json
	stdout, stderr, err = runner.Run("--output", "json", "call", "users", "--method", "post", "--json", `{"name":"ada"}`)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, `"status": 201`)
	assert.Contains(t, stdout, `"name": "ada"`)

	// 3. PUT urlencoded form
	stdout, stderr, err = runner.Run("--output", "json", "call", "users", ":id", "-X", "put", "-p", "id=1", "--form", "name=grace")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, `"body": "grace"`)

	// 4. URL only, no request
	before := api.Hits.Load()
	stdout, stderr, err = runner.Run("url", "users", ":id", "index", "-p", "id=7", "-q", "page=2")
	require.NoError(t, err, stderr)
	assert.Equal(t, api.URL+"/users/7?page=2", strings.TrimSpace(stdout))
	assert.Equal(t, before, api.Hits.Load())
}

// TestManagedRestoreWorkflow caches a response in Redis across two CLI runs.
func TestManagedRestoreWorkflow(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingBinary(t)

	if config.RedisAddr == "" {
		t.Skip("HAC_REDIS_ADDR not set, skipping integration test")
	}

	api := NewUsersAPI(t)
	runner := NewCommandRunner(t, config, fmt.Sprintf(`base_url: %s
cache:
  type: redis
  redis:
    addr: %s
    prefix: "%s:"
`, api.URL, config.RedisAddr, GenerateTestName("hac-it")))

	for range 2 {
		stdout, stderr, err := runner.Run("call", "users", ":id", "--managed", "-p", "id=9",
			"--cache-mode", "restore", "--cache-tag", "users", "--cache-for", "1m", "--select", "id")
		require.NoError(t, err, stderr)
		assert.Equal(t, "9", strings.TrimSpace(stdout))
	}

	// The second process restored the response from Redis.
	assert.Equal(t, int32(1), api.Hits.Load())
}
