package extractors

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/schema"
)

// Observations holds a record's in-range outcome values grouped by subject.
type Observations map[models.Subject][]float64

// Features is the typed view of one normalized row.
type Features struct {
	District         string
	State            string
	Year             int
	YearKnown        bool
	SchoolsSurveyed  int
	StudentsSurveyed int
	Observations     Observations
}

// Extractor derives typed year and subject observations from normalized
// rows. Score values outside [0,100] are excluded and flagged; columns the
// taxonomy cannot classify are dropped with a diagnostics entry, never
// merged into another subject.
type Extractor struct {
	logger  *slog.Logger
	minYear int
	maxYear int

	columnSubjects map[string]models.Subject
	droppedColumns map[string]struct{}
}

// New constructs an Extractor accepting years in [minYear, maxYear].
func New(logger *slog.Logger, minYear, maxYear int) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		logger:         logger,
		minYear:        minYear,
		maxYear:        maxYear,
		columnSubjects: make(map[string]models.Subject),
		droppedColumns: make(map[string]struct{}),
	}
}

// ClassifyColumns resolves each score column of the table to its subject
// once per run. Unclassifiable score columns get a single diagnostics
// entry regardless of row count.
func (e *Extractor) ClassifyColumns(table *models.NormalizedTable, diags *models.DiagnosticsReport) {
	e.columnSubjects = make(map[string]models.Subject, len(table.Columns))
	e.droppedColumns = make(map[string]struct{})

	for _, column := range table.Columns {
		if !schema.IsOutcomeColumn(column) && !IsScoreColumn(column) {
			continue
		}
		subject, ok := ClassifyColumn(column)
		if !ok {
			e.droppedColumns[column] = struct{}{}
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueUnclassifiedColumn,
				Column: column,
				Detail: "outcome code matches no subject; column dropped",
			})
			continue
		}
		e.columnSubjects[column] = subject
	}
}

// Extract derives the typed features of row i. The returned Features may
// carry YearKnown=false when the year field is missing or unparseable;
// the caller decides whether such records survive.
func (e *Extractor) Extract(table *models.NormalizedTable, row int, diags *models.DiagnosticsReport) Features {
	features := Features{
		District:     table.Value(row, schema.ColumnDistrict),
		State:        table.Value(row, schema.ColumnState),
		Observations: make(Observations),
	}

	if raw := table.Value(row, schema.ColumnYear); raw != "" {
		year, err := ParseYear(raw)
		if err != nil || year < e.minYear || year > e.maxYear {
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueUnparseableYear,
				Row:    row + 1,
				Column: schema.ColumnYear,
				Value:  raw,
				Detail: "record excluded from year-bucketed aggregates",
			})
		} else {
			features.Year = year
			features.YearKnown = true
		}
	}

	features.SchoolsSurveyed = parseCount(table.Value(row, schema.ColumnSchoolsSurveyed))
	features.StudentsSurveyed = parseCount(table.Value(row, schema.ColumnStudentsSurveyed))

	// Walk columns in table order so observation slices, and therefore
	// float accumulation, are identical across runs.
	for _, column := range table.Columns {
		subject, ok := e.columnSubjects[column]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(table.Value(row, column))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueMissingValue,
				Row:    row + 1,
				Column: column,
				Value:  raw,
				Detail: "non-numeric score excluded",
			})
			continue
		}
		if value < 0 || value > 100 {
			diags.Add(models.Issue{
				Stage:  "extract",
				Kind:   models.IssueOutOfRangeScore,
				Row:    row + 1,
				Column: column,
				Value:  raw,
				Detail: "score outside [0,100] excluded",
			})
			continue
		}
		features.Observations[subject] = append(features.Observations[subject], value)
	}

	return features
}

func parseCount(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
