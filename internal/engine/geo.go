package engine

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// defaultRegions is the built-in state-to-region map for the coarse
// geographic grouping. A YAML rule file can replace it wholesale.
var defaultRegions = map[string][]string{
	"North": {
		"Delhi", "Haryana", "Himachal Pradesh", "Jammu and Kashmir", "Punjab",
		"Rajasthan", "Uttarakhand", "Uttar Pradesh", "Chandigarh", "Ladakh",
	},
	"South": {
		"Andhra Pradesh", "Karnataka", "Kerala", "Tamil Nadu", "Telangana",
		"Puducherry", "Andaman and Nicobar Islands", "Lakshadweep",
	},
	"East": {"Bihar", "Jharkhand", "Odisha", "West Bengal", "Assam", "Sikkim",
		"Arunachal Pradesh", "Nagaland", "Manipur", "Mizoram", "Tripura", "Meghalaya"},
	"West":    {"Goa", "Gujarat", "Maharashtra", "Dadra and Nagar Haveli and Daman and Diu"},
	"Central": {"Chhattisgarh", "Madhya Pradesh"},
}

// RegionOther labels states absent from the region map.
const RegionOther = "Other"

// Bucketizer maps district aggregates into discrete quartile tiers for
// heatmap-style consumption. Tier 1 is the top quartile. Tiers are a pure
// function of the current aggregates; there is no persistent tier state.
type Bucketizer struct {
	regions map[string]string
}

// NewBucketizer constructs a Bucketizer using the built-in region map,
// optionally overridden by a YAML file of `Region: [states...]` entries.
func NewBucketizer(regionsPath string) (*Bucketizer, error) {
	table := defaultRegions
	if regionsPath != "" {
		data, err := os.ReadFile(regionsPath)
		if err != nil {
			return nil, fmt.Errorf("read regions file: %w", err)
		}
		var parsed map[string][]string
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse regions file: %w", err)
		}
		if len(parsed) > 0 {
			table = parsed
		}
	}

	lookup := make(map[string]string)
	for region, states := range table {
		for _, state := range states {
			lookup[state] = region
		}
	}
	return &Bucketizer{regions: lookup}, nil
}

// Region returns the coarse region for a state, or RegionOther.
func (b *Bucketizer) Region(state string) string {
	if region, ok := b.regions[state]; ok {
		return region
	}
	return RegionOther
}

// Bucketize assigns each district aggregate a quartile tier computed over
// the full set of district means in the result set. Deterministic given
// identical input aggregates.
func (b *Bucketizer) Bucketize(districts []models.AggregateView) []models.TierAssignment {
	usable := make([]models.AggregateView, 0, len(districts))
	for _, view := range districts {
		if !view.Empty() {
			usable = append(usable, view)
		}
	}
	if len(usable) == 0 {
		return nil
	}

	means := make([]float64, len(usable))
	for i, view := range usable {
		means[i] = view.Mean
	}
	sort.Float64s(means)
	q1 := quantile(means, 0.25)
	q2 := quantile(means, 0.50)
	q3 := quantile(means, 0.75)

	assignments := make([]models.TierAssignment, len(usable))
	for i, view := range usable {
		tier := 4
		switch {
		case view.Mean >= q3:
			tier = 1
		case view.Mean >= q2:
			tier = 2
		case view.Mean >= q1:
			tier = 3
		}
		assignments[i] = models.TierAssignment{
			District: view.District,
			State:    view.State,
			Region:   b.Region(view.State),
			Tier:     tier,
			Mean:     view.Mean,
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		if assignments[i].State != assignments[j].State {
			return assignments[i].State < assignments[j].State
		}
		return assignments[i].District < assignments[j].District
	})
	return assignments
}

// quantile performs linear interpolation on a sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[lower+1]*frac
}
