package models

import "time"

// IssueKind classifies a non-fatal data-quality problem.
type IssueKind string

const (
	IssueUnrecognizedColumn IssueKind = "unrecognized_column"
	IssueUnparseableYear    IssueKind = "unparseable_year"
	IssueOutOfRangeScore    IssueKind = "out_of_range_score"
	IssueEmptyRecord        IssueKind = "empty_record"
	IssueMissingValue       IssueKind = "missing_value"
	IssueInsufficientObs    IssueKind = "insufficient_observations"
	IssueDuplicateRow       IssueKind = "duplicate_row"
	IssueUnclassifiedColumn IssueKind = "unclassified_subject_column"
)

// Issue records one problem a pipeline stage chose to work around.
// Row is the 1-based data row in the source file, 0 when not row-scoped.
type Issue struct {
	Stage  string    `json:"stage"`
	Kind   IssueKind `json:"kind"`
	Row    int       `json:"row,omitempty"`
	Column string    `json:"column,omitempty"`
	Value  string    `json:"value,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// DiagnosticsReport accumulates non-fatal issues across stages. It is
// mutable while a pipeline run is in flight and frozen once attached to a
// ResultSet; it is never raised as an error.
type DiagnosticsReport struct {
	RunID      string    `json:"run_id"`
	SourcePath string    `json:"source_path"`
	StartedAt  time.Time `json:"started_at"`
	Issues     []Issue   `json:"issues"`
}

// Add appends an issue to the report.
func (r *DiagnosticsReport) Add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

// CountByKind tallies issues per kind.
func (r *DiagnosticsReport) CountByKind() map[IssueKind]int {
	counts := make(map[IssueKind]int, len(r.Issues))
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// Count returns the total number of recorded issues.
func (r *DiagnosticsReport) Count() int { return len(r.Issues) }
