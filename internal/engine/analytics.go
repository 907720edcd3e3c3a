package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Correlate computes pairwise Pearson correlation across subject scores.
// Each pair uses only the records where both subjects are present
// (pairwise-complete observations, not full-case deletion). The matrix is
// symmetric with a unit diagonal, covering every subject that has at least
// one observation, in taxonomy order.
func Correlate(records []models.PerformanceRecord, diags *models.DiagnosticsReport) models.CorrelationMatrix {
	observed := make([]models.Subject, 0, len(models.AllSubjects))
	for _, subject := range models.AllSubjects {
		for _, rec := range records {
			if rec.HasSubject(subject) {
				observed = append(observed, subject)
				break
			}
		}
	}

	matrix := models.CorrelationMatrix{Subjects: observed}
	matrix.Values = make([][]float64, len(observed))
	for i := range matrix.Values {
		matrix.Values[i] = make([]float64, len(observed))
		matrix.Values[i][i] = 1.0
	}

	for i := 0; i < len(observed); i++ {
		for j := i + 1; j < len(observed); j++ {
			r, n := pearson(records, observed[i], observed[j])
			if n < 2 {
				if diags != nil {
					diags.Add(models.Issue{
						Stage:  "analytics",
						Kind:   models.IssueInsufficientObs,
						Detail: fmt.Sprintf("%s/%s: %d pairwise-complete observations, correlation reported as 0", observed[i], observed[j], n),
					})
				}
				continue
			}
			matrix.Values[i][j] = r
			matrix.Values[j][i] = r
		}
	}
	return matrix
}

// pearson returns the coefficient and the number of pairwise-complete
// observations. A zero-variance side yields r=0.
func pearson(records []models.PerformanceRecord, a, b models.Subject) (float64, int) {
	var xs, ys []float64
	for _, rec := range records {
		x, okX := rec.SubjectScores[a]
		y, okY := rec.SubjectScores[b]
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	n := len(xs)
	if n < 2 {
		return 0, n
	}

	meanX := meanOf(xs)
	meanY := meanOf(ys)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, n
	}

	r := cov / math.Sqrt(varX*varY)
	// Guard against float drift past the mathematical bounds.
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r, n
}

// Distribution summarises the spread of per-record performance scores.
func Distribution(records []models.PerformanceRecord) models.DistributionStats {
	if len(records) == 0 {
		return models.DistributionStats{}
	}
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.PerformanceScore
	}
	view := summarize(values)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return models.DistributionStats{
		Count:  view.Count,
		Mean:   view.Mean,
		Median: median,
		StdDev: view.StdDev,
		Min:    view.Min,
		Max:    view.Max,
	}
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
