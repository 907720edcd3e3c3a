package models

import "time"

// Subject enumerates the closed taxonomy of assessed subjects.
type Subject string

const (
	SubjectMathematics   Subject = "mathematics"
	SubjectScience       Subject = "science"
	SubjectSocialScience Subject = "social_science"
	SubjectLanguage      Subject = "language"
)

// AllSubjects lists the taxonomy in canonical order. Aggregation and
// correlation output follow this order so repeated runs stay byte-identical.
var AllSubjects = []Subject{
	SubjectMathematics,
	SubjectScience,
	SubjectSocialScience,
	SubjectLanguage,
}

// ValidSubject reports whether s belongs to the taxonomy.
func ValidSubject(s Subject) bool {
	for _, known := range AllSubjects {
		if known == s {
			return true
		}
	}
	return false
}

// RawTable is the parsed source file before any schema work: the header row
// and data rows exactly as encoded, plus the content identity used by the
// loader cache.
type RawTable struct {
	SourcePath  string
	Fingerprint uint64
	Header      []string
	Rows        [][]string
	LoadedAt    time.Time
}

// NormalizedTable carries the same rows under canonical column names.
// Columns preserves source order for the canonical fields that survived
// mapping; dropped columns are absent.
type NormalizedTable struct {
	SourcePath  string
	Fingerprint uint64
	Columns     []string
	Rows        [][]string

	index map[string]int
}

// NewNormalizedTable builds a table and its column index.
func NewNormalizedTable(sourcePath string, fingerprint uint64, columns []string, rows [][]string) *NormalizedTable {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[col] = i
	}
	return &NormalizedTable{
		SourcePath:  sourcePath,
		Fingerprint: fingerprint,
		Columns:     columns,
		Rows:        rows,
		index:       index,
	}
}

// HasColumn reports whether the canonical column is present.
func (t *NormalizedTable) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Value returns the cell for a canonical column in the given row, or ""
// when the column is absent or the row is short.
func (t *NormalizedTable) Value(row int, column string) string {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// PerformanceRecord is one district/year observation after feature
// extraction and scoring. SubjectScores only ever holds taxonomy members
// with values in [0,100]; PerformanceScore is derived from them by the
// configured scoring policy.
type PerformanceRecord struct {
	District         string              `json:"district"`
	State            string              `json:"state"`
	Year             int                 `json:"year"`
	SubjectScores    map[Subject]float64 `json:"subject_scores"`
	PerformanceScore float64             `json:"performance_score"`
	SchoolsSurveyed  int                 `json:"schools_surveyed,omitempty"`
	StudentsSurveyed int                 `json:"students_surveyed,omitempty"`
}

// HasSubject reports whether the record carries a score for the subject.
func (r PerformanceRecord) HasSubject(s Subject) bool {
	_, ok := r.SubjectScores[s]
	return ok
}
