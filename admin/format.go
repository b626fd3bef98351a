package admin

import (
	"sort"
	"strings"
	"time"
)

// Display layouts.
const (
	DayLayout      = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006, 15:04"
)

// Placeholder is shown for missing or unreadable dates.
const Placeholder = "-"

var inputLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatIfValid renders s with layout, or Placeholder when s is empty or not
// a recognizable timestamp.
func FormatIfValid(s, layout string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	for _, in := range inputLayouts {
		if t, err := time.Parse(in, s); err == nil {
			return t.Format(layout)
		}
	}
	return Placeholder
}

// FormatBookingDates renders a single day, or the first and last day of the
// sorted list joined by " - ".
func FormatBookingDates(dates []string) string {
	if len(dates) == 0 {
		return Placeholder
	}
	if len(dates) == 1 {
		return FormatIfValid(dates[0], DayLayout)
	}
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	return FormatIfValid(sorted[0], DayLayout) + " - " + FormatIfValid(sorted[len(sorted)-1], DayLayout)
}
