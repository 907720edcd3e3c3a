package extractors

import "testing"

func TestParseYearForms(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"2020", 2020},
		{"2017-18", 2018},
		{"2017-2018", 2018},
		{"2009-10", 2010},
		{"1999-00", 2000},
		{"Calendar Year (Jan - Dec) 2021", 2021},
		{"Academic Year 2017-18", 2018},
	}
	for _, tc := range cases {
		got, err := ParseYear(tc.raw)
		if err != nil {
			t.Fatalf("ParseYear(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseYear(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseYearRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abcd", "year unknown", "198"} {
		if _, err := ParseYear(raw); err == nil {
			t.Fatalf("ParseYear(%q) succeeded, want error", raw)
		}
	}
}

func TestParseYearRejectsDescendingRange(t *testing.T) {
	if _, err := ParseYear("2018-2017"); err == nil {
		t.Fatalf("expected error for descending range")
	}
}
