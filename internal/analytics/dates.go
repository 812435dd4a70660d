package analytics

import (
	"regexp"
	"time"
)

// dateKeyPattern matches a YYYY-MM-DD prefix on ISO dates and datetimes.
var dateKeyPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// DateKey normalizes a free-form date string to its YYYY-MM-DD key.
// ISO dates, ISO datetimes and bare YYYY-MM-DD strings are all accepted.
// Returns "" for empty or unparsable input; invalid dates never panic.
func DateKey(value string) string {
	if value == "" {
		return ""
	}

	if m := dateKeyPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}

	// No ISO prefix - try a full parse and re-render in UTC
	for _, layout := range []string{time.RFC3339, time.RFC1123, time.ANSIC} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}

	return ""
}

// BuildDateRange returns the date keys of the first and last points of a
// series. Falls back to "now" as an ISO timestamp when the series is empty
// or its boundary dates cannot be normalized.
func BuildDateRange(points []PortfolioValuePoint) (startDate, endDate string) {
	now := time.Now().UTC().Format(time.RFC3339)

	if len(points) == 0 {
		return now, now
	}

	startDate = DateKey(points[0].Date)
	if startDate == "" {
		startDate = now
	}

	endDate = DateKey(points[len(points)-1].Date)
	if endDate == "" {
		endDate = now
	}

	return startDate, endDate
}

// NormalizeToScale maps value onto an inverted 0-100 visualization scale:
// 100 at min and 0 at min+rng. A degenerate range (rng <= 0, single-value
// series) yields the midpoint 50 instead of dividing by zero.
func NormalizeToScale(value, min, rng float64) float64 {
	if rng <= 0 {
		return 50
	}
	return 100 - ((value-min)/rng)*100
}

// parseDateUTC resolves a free-form date string to a UTC midnight timestamp.
// The bool result reports whether the date was usable.
func parseDateUTC(value string) (time.Time, bool) {
	key := DateKey(value)
	if key == "" {
		return time.Time{}, false
	}

	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return time.Time{}, false
	}

	return t.UTC(), true
}
