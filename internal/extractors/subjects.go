package extractors

import (
	"strings"

	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/models"
	"github.com/Shreyas521032/National-Achievement-Survey-learning-outcomes/internal/schema"
)

// subjectKeywords is the fixed vocabulary for classifying raw score columns.
// Order matters: the first matching subject wins, and social science is
// checked before science so "social_science" never falls through to science.
var subjectKeywords = []struct {
	subject  models.Subject
	keywords []string
}{
	{models.SubjectSocialScience, []string{"social_science", "social", "sst"}},
	{models.SubjectScience, []string{"science", "sci"}},
	{models.SubjectMathematics, []string{"mathematics", "maths", "math"}},
	{models.SubjectLanguage, []string{"language", "lang"}},
}

// outcome code prefixes from the NAS outcome taxonomy: M601, Sci703,
// Sst605, L813 and so on.
var codePrefixes = []struct {
	subject models.Subject
	prefix  string
}{
	{models.SubjectScience, "sci"},
	{models.SubjectSocialScience, "sst"},
	{models.SubjectMathematics, "m"},
	{models.SubjectLanguage, "l"},
}

// ClassifyColumn maps a normalised column name to its subject. NDAP
// outcome columns classify by their outcome-code prefix; other columns by
// keyword. The second return is false for columns outside the taxonomy.
func ClassifyColumn(column string) (models.Subject, bool) {
	if code, ok := schema.OutcomeCode(column); ok {
		return classifyCode(code)
	}
	return classifyKeyword(column)
}

// IsScoreColumn reports whether the normalised column carries a subject
// score the taxonomy recognises.
func IsScoreColumn(column string) bool {
	_, ok := ClassifyColumn(column)
	return ok
}

func classifyCode(code string) (models.Subject, bool) {
	code = strings.ToLower(code)
	for _, entry := range codePrefixes {
		rest, found := strings.CutPrefix(code, entry.prefix)
		if !found || rest == "" {
			continue
		}
		if isDigits(rest) {
			return entry.subject, true
		}
	}
	return "", false
}

func classifyKeyword(column string) (models.Subject, bool) {
	folded := strings.ToLower(column)
	for _, entry := range subjectKeywords {
		for _, kw := range entry.keywords {
			if containsToken(folded, kw) {
				return entry.subject, true
			}
		}
	}
	return "", false
}

// containsToken matches kw against underscore-separated tokens so that
// "class" does not classify as language via "l" style prefixes.
func containsToken(column, kw string) bool {
	for _, token := range strings.Split(column, "_") {
		if token == kw {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
