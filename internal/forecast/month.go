package forecast

import (
	"strings"
	"time"
)

// monthKeyLayout is the canonical month key format used across baseline
// rows, scenario items and lookups.
const monthKeyLayout = "2006-01"

var monthLayouts = []string{
	monthKeyLayout,
	"2006-1",
	"2006-01-02",
	"Jan 2006",
	"January 2006",
	"Jan-2006",
	"01/2006",
	"1/2006",
	time.RFC3339,
}

// resolveMonthKey normalizes a month value to "YYYY-MM". It accepts the
// canonical key as well as human-readable labels ("Jan 2025") and full
// dates. The second return is false when the input cannot be resolved.
func resolveMonthKey(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(monthKeyLayout), true
		}
	}
	return "", false
}
