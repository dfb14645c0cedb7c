package metrics_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/hac/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	recorder, err := metrics.New(reg)
	require.NoError(t, err)

	recorder.Dispatch(metrics.BackendFetch, "GET")
	recorder.Dispatch(metrics.BackendFetch, "GET")
	recorder.Dispatch(metrics.BackendManaged, "POST")
	recorder.Cache(metrics.CacheHit)
	recorder.Observe("GET", 20*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "hac_dispatch_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = testutil.GatherAndCount(reg, "hac_engine_cache_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_SharedRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()

	first, err := metrics.New(reg)
	require.NoError(t, err)

	second, err := metrics.New(reg)
	require.NoError(t, err)

	first.Dispatch(metrics.BackendURL, "URL")
	second.Dispatch(metrics.BackendURL, "URL")

	count, err := testutil.GatherAndCount(reg, "hac_dispatch_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecorder_Nil(t *testing.T) {
	t.Parallel()

	var recorder *metrics.Recorder

	assert.NotPanics(t, func() {
		recorder.Dispatch(metrics.BackendFetch, "GET")
		recorder.Cache(metrics.CacheMiss)
		recorder.Observe("GET", time.Second)
	})
}
