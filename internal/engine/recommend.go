package engine

import (
	"fmt"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Recommender derives intervention flags and subject findings from
// aggregate and correlation values. It holds only configuration; every
// item is a pure function of its inputs.
type Recommender struct {
	// thresholdStdDevs is how many national standard deviations below the
	// national mean a scope must fall to be flagged.
	thresholdStdDevs float64
	// highCorrelation is the coefficient at which a subject pair is
	// surfaced as strongly correlated.
	highCorrelation float64
}

// NewRecommender constructs a Recommender. Non-positive thresholds fall
// back to the documented defaults (1.0 and 0.8).
func NewRecommender(thresholdStdDevs, highCorrelation float64) *Recommender {
	if thresholdStdDevs <= 0 {
		thresholdStdDevs = 1.0
	}
	if highCorrelation <= 0 {
		highCorrelation = 0.8
	}
	return &Recommender{thresholdStdDevs: thresholdStdDevs, highCorrelation: highCorrelation}
}

// Flag produces the recommendation items for one result set. States and
// districts falling below nationalMean - threshold*nationalStdDev are
// flagged for intervention; the symmetric upper bound highlights leaders.
func (r *Recommender) Flag(
	national models.AggregateView,
	states []models.AggregateView,
	districts []models.AggregateView,
	stateSubjects []models.AggregateView,
	matrix models.CorrelationMatrix,
) []models.RecommendationItem {
	if national.Empty() {
		return nil
	}

	lower := national.Mean - r.thresholdStdDevs*national.StdDev
	upper := national.Mean + r.thresholdStdDevs*national.StdDev

	items := make([]models.RecommendationItem, 0)
	items = append(items, r.flagScopes("state", states, national, lower, upper)...)
	items = append(items, r.flagScopes("district", districts, national, lower, upper)...)
	items = append(items, r.flagSubjects(stateSubjects)...)
	items = append(items, r.flagCorrelations(matrix)...)
	return items
}

func (r *Recommender) flagScopes(scope string, views []models.AggregateView, national models.AggregateView, lower, upper float64) []models.RecommendationItem {
	items := make([]models.RecommendationItem, 0)
	for _, view := range views {
		if view.Empty() {
			continue
		}
		switch {
		case view.Mean < lower:
			items = append(items, models.RecommendationItem{
				Scope:    scope,
				Key:      view.Key,
				Finding:  models.FindingBelowNationalMean,
				Severity: severityForGap(national, view.Mean),
				Detail: fmt.Sprintf("mean %.2f is below the intervention bound %.2f (national mean %.2f, threshold %.1f stddevs)",
					view.Mean, lower, national.Mean, r.thresholdStdDevs),
				Value: view.Mean,
			})
		case view.Mean > upper:
			items = append(items, models.RecommendationItem{
				Scope:    scope,
				Key:      view.Key,
				Finding:  models.FindingAboveNationalMean,
				Severity: models.SeverityLow,
				Detail: fmt.Sprintf("mean %.2f is above the national bound %.2f; a candidate source of good practice",
					view.Mean, upper),
				Value: view.Mean,
			})
		}
	}
	return items
}

// flagSubjects reports the nationally weakest and strongest subjects,
// averaging each subject's state-level means.
func (r *Recommender) flagSubjects(stateSubjects []models.AggregateView) []models.RecommendationItem {
	sums := make(map[models.Subject]float64)
	counts := make(map[models.Subject]int)
	for _, view := range stateSubjects {
		if view.Empty() || view.Subject == "" {
			continue
		}
		sums[view.Subject] += view.Mean
		counts[view.Subject]++
	}
	if len(counts) < 2 {
		return nil
	}

	var weakest, strongest models.Subject
	weakMean, strongMean := 0.0, 0.0
	for _, subject := range models.AllSubjects {
		n, ok := counts[subject]
		if !ok {
			continue
		}
		mean := sums[subject] / float64(n)
		if weakest == "" || mean < weakMean {
			weakest, weakMean = subject, mean
		}
		if strongest == "" || mean > strongMean {
			strongest, strongMean = subject, mean
		}
	}

	return []models.RecommendationItem{
		{
			Scope:    "subject",
			Key:      string(weakest),
			Finding:  models.FindingWeakestSubject,
			Severity: models.SeverityMedium,
			Detail:   fmt.Sprintf("lowest national subject mean %.2f; prioritise curriculum support", weakMean),
			Value:    weakMean,
		},
		{
			Scope:    "subject",
			Key:      string(strongest),
			Finding:  models.FindingStrongestSubject,
			Severity: models.SeverityLow,
			Detail:   fmt.Sprintf("highest national subject mean %.2f", strongMean),
			Value:    strongMean,
		},
	}
}

func (r *Recommender) flagCorrelations(matrix models.CorrelationMatrix) []models.RecommendationItem {
	items := make([]models.RecommendationItem, 0)
	for i := 0; i < len(matrix.Subjects); i++ {
		for j := i + 1; j < len(matrix.Subjects); j++ {
			value := matrix.Values[i][j]
			if value < r.highCorrelation {
				continue
			}
			items = append(items, models.RecommendationItem{
				Scope:    "subject",
				Key:      fmt.Sprintf("%s|%s", matrix.Subjects[i], matrix.Subjects[j]),
				Finding:  models.FindingHighSubjectCorrelation,
				Severity: models.SeverityLow,
				Detail:   fmt.Sprintf("correlation %.2f suggests interventions transfer across both subjects", value),
				Value:    value,
			})
		}
	}
	return items
}

// severityForGap scales severity by how many national stddevs the mean
// sits below the national mean.
func severityForGap(national models.AggregateView, mean float64) models.Severity {
	if national.StdDev == 0 {
		return models.SeverityMedium
	}
	gap := (national.Mean - mean) / national.StdDev
	switch {
	case gap >= 2.5:
		return models.SeverityCritical
	case gap >= 1.75:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}
