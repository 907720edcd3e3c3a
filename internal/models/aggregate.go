package models

// Granularity selects the grouping key for aggregation.
type Granularity string

const (
	GranularityNational     Granularity = "national"
	GranularityState        Granularity = "state"
	GranularityDistrict     Granularity = "district"
	GranularityStateSubject Granularity = "state_subject"
)

// AggregateView summarises one partition key at a granularity. Ranks are
// contiguous from 1 inside a ranking partition: states rank against all
// states (per subject for state_subject), districts rank inside their state.
type AggregateView struct {
	Granularity Granularity `json:"granularity"`
	Key         string      `json:"key"`
	State       string      `json:"state,omitempty"`
	District    string      `json:"district,omitempty"`
	Subject     Subject     `json:"subject,omitempty"`
	Year        int         `json:"year,omitempty"`
	Count       int         `json:"count"`
	Mean        float64     `json:"mean"`
	StdDev      float64     `json:"stddev"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Rank        int         `json:"rank"`
}

// Empty reports whether the view is the explicit no-data marker.
func (v AggregateView) Empty() bool { return v.Count == 0 }

// CorrelationMatrix holds pairwise Pearson coefficients over the subjects
// that had at least one observation, in taxonomy order. Values is square,
// symmetric, with unit diagonal.
type CorrelationMatrix struct {
	Subjects []Subject   `json:"subjects"`
	Values   [][]float64 `json:"values"`
}

// At returns the coefficient for a subject pair, or 0 when either subject
// is absent from the matrix.
func (m CorrelationMatrix) At(a, b Subject) float64 {
	ai, bi := -1, -1
	for i, s := range m.Subjects {
		if s == a {
			ai = i
		}
		if s == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0
	}
	return m.Values[ai][bi]
}

// DistributionStats describes the spread of per-record performance scores.
type DistributionStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Finding enumerates the conditions a recommendation can report.
type Finding string

const (
	FindingBelowNationalMean      Finding = "below_national_mean"
	FindingAboveNationalMean      Finding = "above_national_mean"
	FindingWeakestSubject         Finding = "weakest_subject"
	FindingStrongestSubject       Finding = "strongest_subject"
	FindingHighSubjectCorrelation Finding = "high_subject_correlation"
)

// Severity captures how urgent a flagged finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RecommendationItem is a pure derivation from aggregate and correlation
// values; it carries no state of its own.
type RecommendationItem struct {
	Scope    string   `json:"scope"`
	Key      string   `json:"key"`
	Finding  Finding  `json:"finding"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
	Value    float64  `json:"value"`
}

// TierAssignment places a district into a quartile tier (1 = top quartile)
// with its coarse geographic region.
type TierAssignment struct {
	District string  `json:"district"`
	State    string  `json:"state"`
	Region   string  `json:"region"`
	Tier     int     `json:"tier"`
	Mean     float64 `json:"mean"`
}

// DistrictDetail pairs a district's latest record with its aggregate
// context for the query surface.
type DistrictDetail struct {
	Record         PerformanceRecord `json:"record"`
	Aggregate      AggregateView     `json:"aggregate"`
	StateAggregate AggregateView     `json:"state_aggregate"`
	Tier           *TierAssignment   `json:"tier,omitempty"`
}
