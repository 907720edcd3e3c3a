package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful pipeline runs.
	OutcomeSuccess = "success"
	// OutcomeError labels failed pipeline runs (load or schema failures).
	OutcomeError = "error"

	// CacheHit labels loader lookups served from the table cache.
	CacheHit = "hit"
	// CacheMiss labels loader lookups that had to re-parse the source.
	CacheMiss = "miss"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nas_engine",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	pipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "nas_engine",
			Name:      "pipeline_seconds",
			Help:      "Full pipeline run latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13},
		},
	)

	recordsExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nas_engine",
			Name:      "records_excluded_total",
			Help:      "Records or values dropped by data-quality checks, partitioned by issue kind.",
		},
		[]string{"kind"},
	)

	loaderCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nas_engine",
			Name:      "loader_cache_total",
			Help:      "Loader cache lookups, partitioned by hit/miss.",
		},
		[]string{"result"},
	)
)

// Register attaches the engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pipelineRunsTotal,
		pipelineDurationSeconds,
		recordsExcludedTotal,
		loaderCacheTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObservePipelineRun records one run's duration and outcome label.
func ObservePipelineRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	pipelineRunsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	pipelineDurationSeconds.Observe(duration.Seconds())
}

// ObserveExcluded counts a dropped record or value by issue kind.
func ObserveExcluded(kind string) {
	recordsExcludedTotal.WithLabelValues(kind).Inc()
}

// ObserveCache counts a loader cache lookup result.
func ObserveCache(result string) {
	loaderCacheTotal.WithLabelValues(result).Inc()
}
