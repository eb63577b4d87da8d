package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	// registering twice is a no-op
	require.NoError(t, Register(reg))
}

func TestObserveAPICall(t *testing.T) {
	before := testutil.ToFloat64(apiCalls.WithLabelValues("videos.list", "error"))

	ObserveAPICall("videos.list", errors.New("boom"))
	ObserveAPICall("videos.list", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(apiCalls.WithLabelValues("videos.list", "error")))
}

func TestObservePipelineRun(t *testing.T) {
	before := testutil.ToFloat64(pipelineRuns.WithLabelValues("partial"))

	ObservePipelineRun("partial", 150*time.Millisecond, 3)

	assert.Equal(t, before+1, testutil.ToFloat64(pipelineRuns.WithLabelValues("partial")))
}

func TestObserveCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(cacheLookups.WithLabelValues("miss"))

	ObserveCacheLookup(2, 5)

	assert.Equal(t, hits+2, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+5, testutil.ToFloat64(cacheLookups.WithLabelValues("miss")))
}

func TestSetQuotaUsed(t *testing.T) {
	SetQuotaUsed(420)
	assert.Equal(t, float64(420), testutil.ToFloat64(quotaUsed))
}
