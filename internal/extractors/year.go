package extractors

import (
	"fmt"
	"regexp"
	"strconv"
)

var yearTokenRe = regexp.MustCompile(`(\d{4})(?:\s*-\s*(\d{1,4}))?`)

// ParseYear extracts the survey year from a raw year field. Accepted forms:
//
//	"2020"                           -> 2020
//	"2017-18"                        -> 2018 (later calendar year)
//	"Calendar Year (Jan - Dec) 2021" -> 2021
//
// For dash-joined academic ranges the second token is zero-padded into the
// century of the first ("2017-18" reads as 2017-2018).
func ParseYear(raw string) (int, error) {
	match := yearTokenRe.FindStringSubmatch(raw)
	if match == nil {
		return 0, fmt.Errorf("no 4-digit year in %q", raw)
	}

	first, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", raw, err)
	}
	if match[2] == "" {
		return first, nil
	}

	second, err := strconv.Atoi(match[2])
	if err != nil {
		return 0, fmt.Errorf("parse year range %q: %w", raw, err)
	}
	switch len(match[2]) {
	case 4:
		// Full second year, e.g. "2017-2018".
	case 1, 2:
		// Pad into the first token's century: "2017-18" -> 2018.
		modulus := 100
		if len(match[2]) == 1 {
			modulus = 10
		}
		second = first - first%modulus + second
		if second < first {
			second += modulus
		}
	default:
		return 0, fmt.Errorf("ambiguous year range %q", raw)
	}

	if second < first {
		return 0, fmt.Errorf("descending year range %q", raw)
	}
	return second, nil
}
