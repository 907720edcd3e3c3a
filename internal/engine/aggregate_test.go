package engine

import (
	"reflect"
	"testing"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

func record(state, district string, year int, score float64) models.PerformanceRecord {
	return models.PerformanceRecord{
		State:            state,
		District:         district,
		Year:             year,
		PerformanceScore: score,
		SubjectScores:    map[models.Subject]float64{models.SubjectMathematics: score},
	}
}

func TestAggregateStates(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2021, 85),
		record("Kerala", "Kozhikode", 2021, 65),
		record("Punjab", "Amritsar", 2021, 70),
	}

	views := Aggregate(records, models.GranularityState)
	if len(views) != 2 {
		t.Fatalf("state views = %d, want 2", len(views))
	}

	kerala := views[0]
	if kerala.State != "Kerala" || kerala.Rank != 1 {
		t.Fatalf("top state = %s rank %d, want Kerala rank 1", kerala.State, kerala.Rank)
	}
	if kerala.Count != 2 || !almostEqual(kerala.Mean, 75) {
		t.Fatalf("kerala count=%d mean=%f, want 2/75", kerala.Count, kerala.Mean)
	}
	// Population stddev of {85, 65} is 10.
	if !almostEqual(kerala.StdDev, 10) {
		t.Fatalf("kerala stddev = %f, want 10", kerala.StdDev)
	}
	if kerala.Min != 65 || kerala.Max != 85 {
		t.Fatalf("kerala min/max = %f/%f, want 65/85", kerala.Min, kerala.Max)
	}

	if views[1].State != "Punjab" || views[1].Rank != 2 {
		t.Fatalf("second state = %s rank %d, want Punjab rank 2", views[1].State, views[1].Rank)
	}
}

// Districts rank inside their own state, so a middling district in a
// strong state still gets rank 2 within that state.
func TestAggregateDistrictsRankWithinState(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2021, 85),
		record("Kerala", "Kozhikode", 2021, 65),
		record("Punjab", "Amritsar", 2021, 70),
		record("Punjab", "Ludhiana", 2021, 60),
	}

	views := Aggregate(records, models.GranularityDistrict)
	ranks := make(map[string]int, len(views))
	for _, v := range views {
		ranks[v.Key] = v.Rank
	}

	want := map[string]int{
		"Kerala/Ernakulam": 1,
		"Kerala/Kozhikode": 2,
		"Punjab/Amritsar":  1,
		"Punjab/Ludhiana":  2,
	}
	if !reflect.DeepEqual(ranks, want) {
		t.Fatalf("district ranks = %v, want %v", ranks, want)
	}
}

// The same district name in two states must stay two distinct groups.
func TestAggregateDistrictsDisambiguatedByState(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Bihar", "Aurangabad", 2021, 55),
		record("Maharashtra", "Aurangabad", 2021, 75),
	}

	views := Aggregate(records, models.GranularityDistrict)
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2 distinct districts", len(views))
	}
}

func TestAggregateNational(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2021, 80),
		record("Punjab", "Amritsar", 2021, 60),
	}

	views := Aggregate(records, models.GranularityNational)
	if len(views) != 1 {
		t.Fatalf("national views = %d, want 1", len(views))
	}
	national := views[0]
	if national.Key != "national" || national.Rank != 1 {
		t.Fatalf("national key/rank = %s/%d", national.Key, national.Rank)
	}
	if !almostEqual(national.Mean, 70) || national.Count != 2 {
		t.Fatalf("national mean/count = %f/%d, want 70/2", national.Mean, national.Count)
	}
}

func TestAggregateStateSubjectsRankPerSubject(t *testing.T) {
	records := []models.PerformanceRecord{
		{State: "Kerala", District: "Ernakulam", PerformanceScore: 80,
			SubjectScores: map[models.Subject]float64{models.SubjectMathematics: 80, models.SubjectScience: 90}},
		{State: "Punjab", District: "Amritsar", PerformanceScore: 70,
			SubjectScores: map[models.Subject]float64{models.SubjectMathematics: 85, models.SubjectScience: 60}},
	}

	views := Aggregate(records, models.GranularityStateSubject)
	ranks := make(map[string]int, len(views))
	for _, v := range views {
		ranks[v.Key] = v.Rank
	}

	if ranks["Punjab|mathematics"] != 1 || ranks["Kerala|mathematics"] != 2 {
		t.Fatalf("mathematics ranks wrong: %v", ranks)
	}
	if ranks["Kerala|science"] != 1 || ranks["Punjab|science"] != 2 {
		t.Fatalf("science ranks wrong: %v", ranks)
	}
}

func TestAggregateTieBreaksByKey(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2021, 70),
		record("Punjab", "Amritsar", 2021, 70),
	}

	views := Aggregate(records, models.GranularityState)
	if views[0].State != "Kerala" || views[1].State != "Punjab" {
		t.Fatalf("tie should order by key: %s then %s", views[0].State, views[1].State)
	}
	if views[0].Rank != 1 || views[1].Rank != 2 {
		t.Fatalf("ranks = %d/%d, want 1/2", views[0].Rank, views[1].Rank)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	for _, granularity := range []models.Granularity{
		models.GranularityNational,
		models.GranularityState,
		models.GranularityDistrict,
		models.GranularityStateSubject,
	} {
		views := Aggregate(nil, granularity)
		if len(views) != 1 {
			t.Fatalf("%s: views = %d, want one explicit empty view", granularity, len(views))
		}
		if views[0].Count != 0 {
			t.Fatalf("%s: empty view has count %d", granularity, views[0].Count)
		}
	}
}

func TestAggregateByYear(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2017, 70),
		record("Kerala", "Ernakulam", 2021, 80),
		record("Punjab", "Amritsar", 2021, 85),
		record("Punjab", "Amritsar", 0, 99), // unknown year stays out
	}

	views := AggregateByYear(records)
	if len(views) != 3 {
		t.Fatalf("views = %d, want 3", len(views))
	}
	if views[0].Year != 2017 {
		t.Fatalf("views must order by year, got %d first", views[0].Year)
	}
	// 2021: Punjab (85) outranks Kerala (80) within the year.
	if views[1].Year != 2021 || views[1].State != "Punjab" || views[1].Rank != 1 {
		t.Fatalf("2021 leader = %s rank %d", views[1].State, views[1].Rank)
	}
	if views[2].State != "Kerala" || views[2].Rank != 2 {
		t.Fatalf("2021 runner-up = %s rank %d", views[2].State, views[2].Rank)
	}
}

// Identical input must produce identical output, element for element.
func TestAggregateDeterministic(t *testing.T) {
	records := []models.PerformanceRecord{
		record("Kerala", "Ernakulam", 2021, 85.3),
		record("Kerala", "Kozhikode", 2021, 65.7),
		record("Punjab", "Amritsar", 2021, 70.1),
		record("Punjab", "Ludhiana", 2021, 60.9),
		record("Bihar", "Patna", 2021, 55.5),
	}

	first := Aggregate(records, models.GranularityDistrict)
	for i := 0; i < 10; i++ {
		again := Aggregate(records, models.GranularityDistrict)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("aggregation not deterministic on iteration %d", i)
		}
	}
}
