// Package metrics exposes Prometheus instrumentation for the discovery
// pipeline and its collaborators.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "opportunity_finder"

var (
	apiCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "youtube_api_calls_total",
		Help:      "YouTube Data API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	batchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_failures_total",
		Help:      "Lookup batches dropped by stage and error kind.",
	}, []string{"stage", "kind"})

	pipelineRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Discovery runs by outcome.",
	}, []string{"outcome"})

	pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Wall time of discovery runs.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
	})

	pipelineResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_results",
		Help:      "Records returned per discovery run after filtering.",
		Buckets:   prometheus.LinearBuckets(0, 25, 9),
	})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channel_cache_lookups_total",
		Help:      "Channel cache lookups by result.",
	}, []string{"result"})

	refreshTasks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channel_refresh_tasks_total",
		Help:      "Channel refresh tasks by outcome.",
	}, []string{"outcome"})

	quotaUsed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "youtube_quota_used",
		Help:      "YouTube API quota units used today.",
	})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		apiCalls,
		batchFailures,
		pipelineRuns,
		pipelineDuration,
		pipelineResults,
		cacheLookups,
		refreshTasks,
		quotaUsed,
	}
}

// Register registers every collector with reg. Collectors that are already
// registered are skipped.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAPICall counts one remote call.
func ObserveAPICall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	apiCalls.WithLabelValues(operation, outcome).Inc()
}

// ObserveBatchFailure counts one dropped batch.
func ObserveBatchFailure(stage, kind string) {
	batchFailures.WithLabelValues(stage, kind).Inc()
}

// ObservePipelineRun records the outcome of one discovery run.
func ObservePipelineRun(outcome string, d time.Duration, results int) {
	pipelineRuns.WithLabelValues(outcome).Inc()
	if d > 0 {
		pipelineDuration.Observe(d.Seconds())
		pipelineResults.Observe(float64(results))
	}
}

// ObserveCacheLookup counts channel cache hits and misses.
func ObserveCacheLookup(hits, misses int) {
	cacheLookups.WithLabelValues("hit").Add(float64(hits))
	cacheLookups.WithLabelValues("miss").Add(float64(misses))
}

// ObserveRefreshTask counts one processed refresh task.
func ObserveRefreshTask(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	refreshTasks.WithLabelValues(outcome).Inc()
}

// SetQuotaUsed publishes today's quota consumption.
func SetQuotaUsed(units int) {
	quotaUsed.Set(float64(units))
}
