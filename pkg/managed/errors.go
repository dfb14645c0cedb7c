package managed

import "errors"

// Static errors for err113 compliance.
var (
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("entry expired")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for redis cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrHTTPStatus            = errors.New("unexpected HTTP status")
	ErrInterceptorFailed     = errors.New("interceptor failed")
)
