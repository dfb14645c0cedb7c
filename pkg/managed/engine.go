package managed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/fivetwenty-io/hac/pkg/hac"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Config holds the engine configuration.
type Config struct {
	// BaseURL is prepended to relative method URLs.
	BaseURL string

	// Cache is the persistent backend used by the "restore" cache mode.
	// When nil, CacheConfig is used, and without it "restore" behaves like
	// "memory".
	Cache       Cache
	CacheConfig *CacheConfig
	// MemoryCacheSize bounds the in-process cache.
	MemoryCacheSize int

	// Retry configuration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Timeout applies when HTTPClient is nil.
	Timeout time.Duration
	// HTTPClient replaces the pooled client under the retry layer.
	HTTPClient *http.Client
	// UserAgent is set when a request carries none.
	UserAgent string

	// Interceptors run around every round-trip.
	Interceptors *InterceptorChain

	// Logging
	Logger hac.Logger
	Debug  bool

	// Registerer receives cache and latency metrics when set.
	Registerer prometheus.Registerer
}

// Engine implements hac.Engine.
type Engine struct {
	config   *Config
	client   *retryablehttp.Client
	memory   *MemoryCache
	restore  Cache
	recorder *metrics.Recorder
	logger   hac.Logger
	group    singleflight.Group

	mutex sync.RWMutex
	named map[string]*Method
	tags  map[string]map[string]struct{}
}

var _ hac.Engine = (*Engine)(nil)

// New creates an engine.
func New(ctx context.Context, config *Config) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}

	cfg := *config
	applyDefaults(&cfg)

	if cfg.Debug {
		cfg.Interceptors = withLogging(cfg.Interceptors, cfg.Logger)
	}

	recorder, err := metrics.New(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	memory := NewMemoryCache(cfg.MemoryCacheSize)

	var restore Cache = memory

	switch {
	case cfg.Cache != nil:
		restore = NewCacheChain(memory, cfg.Cache)
	case cfg.CacheConfig != nil:
		backend, err := NewCacheFromConfig(ctx, cfg.CacheConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}

		restore = NewCacheChain(memory, backend)
	}

	return &Engine{
		config:   &cfg,
		client:   newRetryClient(&cfg, cfg.Logger),
		memory:   memory,
		restore:  restore,
		recorder: recorder,
		logger:   cfg.Logger,
		named:    make(map[string]*Method),
		tags:     make(map[string]map[string]struct{}),
	}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Logger == nil {
		cfg.Logger = hac.NopLogger{}
	}

	if cfg.RetryMax == 0 {
		cfg.RetryMax = constants.DefaultRetryMax
	}

	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = constants.DefaultRetryWaitMin
	}

	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = constants.DefaultRetryWaitMax
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultHTTPTimeout
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}
}

// BaseURL implements hac.Engine.
func (e *Engine) BaseURL() string {
	return e.config.BaseURL
}

// Get implements hac.Engine.
func (e *Engine) Get(url string, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodGet, url, nil, cfg)
}

// Head implements hac.Engine.
func (e *Engine) Head(url string, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodHead, url, nil, cfg)
}

// Options implements hac.Engine.
func (e *Engine) Options(url string, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodOptions, url, nil, cfg)
}

// Post implements hac.Engine.
func (e *Engine) Post(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodPost, url, body, cfg)
}

// Put implements hac.Engine.
func (e *Engine) Put(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodPut, url, body, cfg)
}

// Patch implements hac.Engine.
func (e *Engine) Patch(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodPatch, url, body, cfg)
}

// Delete implements hac.Engine.
func (e *Engine) Delete(url string, body *hac.Body, cfg *hac.CallConfig) hac.Handle {
	return e.newMethod(hac.MethodDelete, url, body, cfg)
}

func (e *Engine) newMethod(verb hac.Method, url string, body *hac.Body, cfg *hac.CallConfig) *Method {
	method := newMethod(e, verb, url, body, hac.MergeCallConfig(cfg))

	if method.Name() != "" {
		e.mutex.Lock()
		e.named[method.Name()] = method
		e.mutex.Unlock()
	}

	return method
}

// Method returns the last method created with name.
func (e *Engine) Method(name string) (*Method, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	method, ok := e.named[name]

	return method, ok
}

// InvalidateTag drops every cached response stored with tag.
func (e *Engine) InvalidateTag(ctx context.Context, tag string) error {
	e.mutex.Lock()
	keys := e.tags[tag]
	delete(e.tags, tag)
	e.mutex.Unlock()

	var lastErr error

	for key := range keys {
		err := e.restore.Delete(ctx, key)
		if err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Invalidate drops the cached response of method.
func (e *Engine) Invalidate(ctx context.Context, method *Method) error {
	return e.restore.Delete(ctx, method.Key())
}

func (e *Engine) tag(tag, key string) {
	if tag == "" {
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.tags[tag] == nil {
		e.tags[tag] = make(map[string]struct{})
	}

	e.tags[tag][key] = struct{}{}
}

// cacheFor returns the cache for mode.
func (e *Engine) cacheFor(mode hac.CacheMode) Cache {
	if mode == hac.CacheModeRestore {
		return e.restore
	}

	return e.memory
}
