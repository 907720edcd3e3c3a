package models

import "time"

// ResultSet is the immutable output of one pipeline run. Stages never
// mutate it after construction; the query service swaps whole snapshots.
type ResultSet struct {
	SnapshotID      string
	SourcePath      string
	Fingerprint     uint64
	ProducedAt      time.Time
	Records         []PerformanceRecord
	National        AggregateView
	States          []AggregateView
	Districts       []AggregateView
	StateSubjects   []AggregateView
	ByYear          []AggregateView
	Distribution    DistributionStats
	Correlations    CorrelationMatrix
	Recommendations []RecommendationItem
	Tiers           []TierAssignment
	Diagnostics     DiagnosticsReport
}
