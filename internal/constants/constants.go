package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Retry limits of the managed engine.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency and caching limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch sends.
	DefaultConcurrencyLimit = 5

	// DefaultCacheSize is the default number of entries in the memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL applies to cache directives without an expiry.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultRedisPrefix namespaces Redis cache keys.
	DefaultRedisPrefix = "hac:cache:"

	// DefaultNATSBucket is the default JetStream key-value bucket.
	DefaultNATSBucket = "hac_cache"
)

// Client defaults.
const (
	// DefaultBaseURL is used when neither the adapter nor the engine sets one.
	DefaultBaseURL = "/"

	// DefaultUserAgent is sent by the default transports.
	DefaultUserAgent = "hac-go/1.0"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
