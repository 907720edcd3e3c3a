package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Aggregate groups records by the requested granularity and computes
// count, mean, population standard deviation, min, max, and rank for each
// group. A granularity with no contributing records yields one explicit
// empty view (count 0) so callers can render a no-data state.
//
// Ranking is descending by mean with ties broken by ascending key name,
// which gives a deterministic total order on identical input. Districts
// rank inside their state; states rank against all states (per subject
// for state_subject).
func Aggregate(records []models.PerformanceRecord, granularity models.Granularity) []models.AggregateView {
	switch granularity {
	case models.GranularityNational:
		return aggregateNational(records)
	case models.GranularityState:
		return aggregateStates(records)
	case models.GranularityDistrict:
		return aggregateDistricts(records)
	case models.GranularityStateSubject:
		return aggregateStateSubjects(records)
	default:
		return []models.AggregateView{{Granularity: granularity}}
	}
}

// AggregateByYear computes (year, state) statistics for trend views.
// Records without a known year never contribute here.
func AggregateByYear(records []models.PerformanceRecord) []models.AggregateView {
	groups := make(map[string][]float64)
	years := make(map[string]int)
	states := make(map[string]string)
	for _, rec := range records {
		if rec.Year == 0 {
			continue
		}
		key := fmt.Sprintf("%04d|%s", rec.Year, rec.State)
		groups[key] = append(groups[key], rec.PerformanceScore)
		years[key] = rec.Year
		states[key] = rec.State
	}
	if len(groups) == 0 {
		return []models.AggregateView{{Granularity: models.GranularityState, Count: 0}}
	}

	views := make([]models.AggregateView, 0, len(groups))
	for key, values := range groups {
		view := summarize(values)
		view.Granularity = models.GranularityState
		view.Key = key
		view.State = states[key]
		view.Year = years[key]
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].Year != views[j].Year {
			return views[i].Year < views[j].Year
		}
		if views[i].Mean != views[j].Mean {
			return views[i].Mean > views[j].Mean
		}
		return views[i].Key < views[j].Key
	})
	// Rank states within each year.
	rankPartitions(views, func(v models.AggregateView) string { return fmt.Sprintf("%04d", v.Year) })
	return views
}

func aggregateNational(records []models.PerformanceRecord) []models.AggregateView {
	if len(records) == 0 {
		return []models.AggregateView{{Granularity: models.GranularityNational, Key: "national"}}
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.PerformanceScore
	}
	view := summarize(values)
	view.Granularity = models.GranularityNational
	view.Key = "national"
	view.Rank = 1
	return []models.AggregateView{view}
}

func aggregateStates(records []models.PerformanceRecord) []models.AggregateView {
	groups := make(map[string][]float64)
	for _, rec := range records {
		groups[rec.State] = append(groups[rec.State], rec.PerformanceScore)
	}
	if len(groups) == 0 {
		return []models.AggregateView{{Granularity: models.GranularityState, Count: 0}}
	}

	views := make([]models.AggregateView, 0, len(groups))
	for state, values := range groups {
		view := summarize(values)
		view.Granularity = models.GranularityState
		view.Key = state
		view.State = state
		views = append(views, view)
	}
	sortByMeanThenKey(views)
	for i := range views {
		views[i].Rank = i + 1
	}
	return views
}

func aggregateDistricts(records []models.PerformanceRecord) []models.AggregateView {
	groups := make(map[string][]float64)
	states := make(map[string]string)
	districts := make(map[string]string)
	for _, rec := range records {
		key := rec.State + "/" + rec.District
		groups[key] = append(groups[key], rec.PerformanceScore)
		states[key] = rec.State
		districts[key] = rec.District
	}
	if len(groups) == 0 {
		return []models.AggregateView{{Granularity: models.GranularityDistrict, Count: 0}}
	}

	views := make([]models.AggregateView, 0, len(groups))
	for key, values := range groups {
		view := summarize(values)
		view.Granularity = models.GranularityDistrict
		view.Key = key
		view.State = states[key]
		view.District = districts[key]
		views = append(views, view)
	}
	sortByMeanThenKey(views)
	rankPartitions(views, func(v models.AggregateView) string { return v.State })
	return views
}

func aggregateStateSubjects(records []models.PerformanceRecord) []models.AggregateView {
	groups := make(map[string][]float64)
	states := make(map[string]string)
	subjects := make(map[string]models.Subject)
	for _, rec := range records {
		for _, subject := range models.AllSubjects {
			score, ok := rec.SubjectScores[subject]
			if !ok {
				continue
			}
			key := rec.State + "|" + string(subject)
			groups[key] = append(groups[key], score)
			states[key] = rec.State
			subjects[key] = subject
		}
	}
	if len(groups) == 0 {
		return []models.AggregateView{{Granularity: models.GranularityStateSubject, Count: 0}}
	}

	views := make([]models.AggregateView, 0, len(groups))
	for key, values := range groups {
		view := summarize(values)
		view.Granularity = models.GranularityStateSubject
		view.Key = key
		view.State = states[key]
		view.Subject = subjects[key]
		views = append(views, view)
	}
	sortByMeanThenKey(views)
	rankPartitions(views, func(v models.AggregateView) string { return string(v.Subject) })
	return views
}

// summarize computes the order-insensitive statistics for one group.
// Values arrive in record order, which is itself deterministic, so float
// accumulation is reproducible.
func summarize(values []float64) models.AggregateView {
	view := models.AggregateView{Count: len(values)}
	if len(values) == 0 {
		return view
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	// Population variance: each group is the complete population for its
	// key, not a sample.
	variance /= float64(len(values))

	view.Mean = mean
	view.StdDev = math.Sqrt(variance)
	view.Min = min
	view.Max = max
	return view
}

func sortByMeanThenKey(views []models.AggregateView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].Mean != views[j].Mean {
			return views[i].Mean > views[j].Mean
		}
		return views[i].Key < views[j].Key
	})
}

// rankPartitions assigns contiguous ranks starting at 1 inside each
// partition. Views must already be in rank order.
func rankPartitions(views []models.AggregateView, partition func(models.AggregateView) string) {
	next := make(map[string]int)
	for i := range views {
		p := partition(views[i])
		next[p]++
		views[i].Rank = next[p]
	}
}
