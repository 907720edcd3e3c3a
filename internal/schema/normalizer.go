package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
)

// Canonical column names recognised by the pipeline. Outcome-score columns
// are not enumerated here; they keep their normalised form and are
// classified by subject during feature extraction.
const (
	ColumnCountry          = "country"
	ColumnState            = "state"
	ColumnDistrict         = "district"
	ColumnYear             = "year"
	ColumnClass            = "class"
	ColumnSchoolsSurveyed  = "schools_surveyed"
	ColumnStudentsSurveyed = "students_surveyed"
)

// SchemaError reports that a required canonical field is missing after
// mapping. It aborts the pipeline run.
type SchemaError struct {
	Source  string
	Missing string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: required field %q missing after normalization", e.Source, e.Missing)
}

// variantTable maps known raw header variants (already folded through
// foldHeader) to canonical names. Entries cover the NDAP export headers and
// a few common CSV spellings.
var variantTable = map[string]string{
	"country":                           ColumnCountry,
	"state":                             ColumnState,
	"state_ut":                          ColumnState,
	"state_name":                        ColumnState,
	"district":                          ColumnDistrict,
	"district_name":                     ColumnDistrict,
	"year":                              ColumnYear,
	"survey_year":                       ColumnYear,
	"academic_year":                     ColumnYear,
	"class":                             ColumnClass,
	"grade":                             ColumnClass,
	"number_of_schools_surveyed":        ColumnSchoolsSurveyed,
	"total_number_of_schools_surveyed":  ColumnSchoolsSurveyed,
	"schools_surveyed":                  ColumnSchoolsSurveyed,
	"number_of_students_surveyed":       ColumnStudentsSurveyed,
	"total_number_of_students_surveyed": ColumnStudentsSurveyed,
	"students_surveyed":                 ColumnStudentsSurveyed,
}

// canonicalSet is consulted by the fallback exact-match step.
var canonicalSet = map[string]struct{}{
	ColumnCountry:          {},
	ColumnState:            {},
	ColumnDistrict:         {},
	ColumnYear:             {},
	ColumnClass:            {},
	ColumnSchoolsSurveyed:  {},
	ColumnStudentsSurveyed: {},
}

var (
	parenRe     = regexp.MustCompile(`\(.*?\)`)
	separatorRe = regexp.MustCompile(`[\s/:_\-.]+`)
)

// outcomePrefix marks the NDAP per-outcome performance columns, e.g.
// "Average Performance Of Students In M601 Learning Outcome (UOM:%...)".
const outcomePrefix = "average_performance_of_students_in_"

// Normalizer maps raw headers onto the canonical schema. Score columns
// outside the NDAP outcome naming are recognised through the supplied
// matcher so the subject vocabulary stays with the feature extractor.
type Normalizer struct {
	isScore func(column string) bool
}

// New constructs a Normalizer. isScore may be nil, in which case only NDAP
// outcome columns count as score columns.
func New(isScore func(column string) bool) *Normalizer {
	if isScore == nil {
		isScore = func(string) bool { return false }
	}
	return &Normalizer{isScore: isScore}
}

// Normalize canonicalises the table's column names. Unmapped columns are
// recorded in diagnostics as unrecognized and excluded from the output;
// missing required fields produce a SchemaError. Normalizing an already
// canonical table is a no-op.
func (n *Normalizer) Normalize(table *models.RawTable, diags *models.DiagnosticsReport) (*models.NormalizedTable, error) {
	columns := make([]string, 0, len(table.Header))
	keep := make([]int, 0, len(table.Header))
	seen := make(map[string]struct{}, len(table.Header))
	outcomeColumns := 0

	for i, raw := range table.Header {
		name, ok := n.canonicalName(raw)
		if !ok {
			diags.Add(models.Issue{
				Stage:  "normalize",
				Kind:   models.IssueUnrecognizedColumn,
				Column: raw,
				Detail: "no canonical mapping; column excluded from processing",
			})
			continue
		}
		if _, dup := seen[name]; dup {
			diags.Add(models.Issue{
				Stage:  "normalize",
				Kind:   models.IssueUnrecognizedColumn,
				Column: raw,
				Detail: fmt.Sprintf("duplicate of canonical column %q; later column excluded", name),
			})
			continue
		}
		seen[name] = struct{}{}
		columns = append(columns, name)
		keep = append(keep, i)
		if strings.HasPrefix(name, outcomePrefix) || n.isScore(name) {
			outcomeColumns++
		}
	}

	for _, required := range []string{ColumnDistrict, ColumnState} {
		if _, ok := seen[required]; !ok {
			return nil, &SchemaError{Source: table.SourcePath, Missing: required}
		}
	}
	if outcomeColumns == 0 {
		return nil, &SchemaError{Source: table.SourcePath, Missing: "subject score columns"}
	}

	rows := make([][]string, len(table.Rows))
	for r, src := range table.Rows {
		row := make([]string, len(keep))
		for c, idx := range keep {
			if idx < len(src) {
				row[c] = strings.TrimSpace(src[idx])
			}
		}
		rows[r] = row
	}

	return models.NewNormalizedTable(table.SourcePath, table.Fingerprint, columns, rows), nil
}

// canonicalName resolves a raw header to its canonical form: first through
// the static variant table, then by deterministic folding with an exact
// match against the canonical set. Score columns keep their folded name.
func (n *Normalizer) canonicalName(raw string) (string, bool) {
	folded := foldHeader(raw)
	if folded == "" {
		return "", false
	}
	if name, ok := variantTable[folded]; ok {
		return name, true
	}
	if _, ok := canonicalSet[folded]; ok {
		return folded, true
	}
	if strings.HasPrefix(folded, outcomePrefix) || n.isScore(folded) {
		return folded, true
	}
	return "", false
}

// foldHeader strips parenthesised units and scaling suffixes, lower-cases,
// and collapses separator runs to single underscores.
func foldHeader(raw string) string {
	s := raw
	for parenRe.MatchString(s) {
		s = parenRe.ReplaceAllString(s, " ")
	}
	// Nested units like "(UOM:%(Percentage))" leave orphan brackets behind.
	s = strings.NewReplacer("(", " ", ")", " ").Replace(s)
	if idx := strings.Index(s, ","); idx >= 0 {
		// Drop trailing ", Scaling Factor:1" style annotations.
		s = s[:idx]
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = separatorRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// OutcomeCode extracts the learning-outcome code from a normalised outcome
// column name ("average_performance_of_students_in_m601_learning_outcome"
// yields "m601"). The second return is false for non-outcome columns.
func OutcomeCode(column string) (string, bool) {
	if !strings.HasPrefix(column, outcomePrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(column, outcomePrefix)
	rest = strings.TrimSuffix(rest, "_learning_outcome")
	if rest == "" {
		return "", false
	}
	return rest, true
}

// IsOutcomeColumn reports whether the normalised column carries an
// outcome score.
func IsOutcomeColumn(column string) bool {
	return strings.HasPrefix(column, outcomePrefix)
}
