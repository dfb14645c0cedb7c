// Package metrics records dispatch and cache activity with Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hac"

// Backend labels.
const (
	BackendFetch   = "fetch"
	BackendManaged = "managed"
	BackendURL     = "url"
)

// Cache result labels.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStore = "store"
	CacheError = "error"
)

// Recorder is nil-safe: every method on a nil *Recorder is a no-op.
type Recorder struct {
	dispatch *prometheus.CounterVec
	cache    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates a Recorder and registers it with reg when reg is not nil.
// Collectors already registered by another Recorder are reused.
func New(reg prometheus.Registerer) (*Recorder, error) {
	recorder := &Recorder{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Chain invocations by selected backend and method.",
		}, []string{"backend", "method"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_cache_total",
			Help:      "Managed engine cache lookups and stores by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_request_duration_seconds",
			Help:      "Managed engine round-trip duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg == nil {
		return recorder, nil
	}

	var err error

	recorder.dispatch, err = register(reg, recorder.dispatch)
	if err != nil {
		return nil, err
	}

	recorder.cache, err = register(reg, recorder.cache)
	if err != nil {
		return nil, err
	}

	recorder.duration, err = register(reg, recorder.duration)
	if err != nil {
		return nil, err
	}

	return recorder, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return collector, fmt.Errorf("registering metrics: %w", err)
}

// Dispatch counts one chain invocation.
func (r *Recorder) Dispatch(backend, method string) {
	if r == nil {
		return
	}

	r.dispatch.WithLabelValues(backend, method).Inc()
}

// Cache counts one cache event.
func (r *Recorder) Cache(result string) {
	if r == nil {
		return
	}

	r.cache.WithLabelValues(result).Inc()
}

// Observe records a managed round-trip duration.
func (r *Recorder) Observe(method string, elapsed time.Duration) {
	if r == nil {
		return
	}

	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
