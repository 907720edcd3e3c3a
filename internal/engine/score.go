package engine

import (
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/config"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/extractors"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Calculator turns a record's subject observations into subject scores and
// a composite performance score. The composite policy is explicit
// configuration, never implied: subject_mean averages the per-subject
// means (each subject weighs equally), outcome_mean averages every outcome
// value (a subject weighs by how many outcomes it contributes).
type Calculator struct {
	policy string
}

// NewCalculator constructs a Calculator for the configured policy.
func NewCalculator(policy string) *Calculator {
	if policy == "" {
		policy = config.PolicySubjectMean
	}
	return &Calculator{policy: policy}
}

// Score computes per-subject means and the composite score. ok is false
// when the record has no usable observations at all; such records are
// excluded entirely from aggregation.
func (c *Calculator) Score(obs extractors.Observations) (map[models.Subject]float64, float64, bool) {
	scores := make(map[models.Subject]float64, len(obs))

	subjectSum := 0.0
	subjectCount := 0
	outcomeSum := 0.0
	outcomeCount := 0

	// Taxonomy order keeps float accumulation reproducible.
	for _, subject := range models.AllSubjects {
		values, ok := obs[subject]
		if !ok || len(values) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))
		scores[subject] = mean

		subjectSum += mean
		subjectCount++
		outcomeSum += sum
		outcomeCount += len(values)
	}

	if subjectCount == 0 {
		return nil, 0, false
	}

	var composite float64
	if c.policy == config.PolicyOutcomeMean {
		composite = outcomeSum / float64(outcomeCount)
	} else {
		composite = subjectSum / float64(subjectCount)
	}
	return scores, composite, true
}
