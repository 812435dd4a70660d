package analytics

import (
	"sort"
	"strconv"
	"time"
)

// maxRetainedMonths caps the monthly PnL output to the most recent year.
const maxRetainedMonths = 12

// MonthlyOptions tunes the monthly aggregation.
// FallbackBaseline is the portfolio value assumed for a month whose start
// value cannot be found in the reference series; 0 disables the fallback,
// in which case such months are emitted with value 0 and Baselined=false.
type MonthlyOptions struct {
	FallbackBaseline float64
}

// AggregateMonthlyPnL groups daily yield entries into calendar months and
// computes each month's percentage return against the portfolio value at
// month start, taken from the reference series. Entries with unparsable
// dates are dropped. At most the last 12 months are retained, ascending.
func AggregateMonthlyPnL(entries []YieldEntry, reference []PortfolioValuePoint, opts MonthlyOptions) []MonthlyPnL {
	// Group yields by YYYY-MM key. Lexicographic order of the keys is
	// chronological order.
	sums := make(map[string]float64)
	for _, entry := range entries {
		key := DateKey(entry.Date)
		if key == "" {
			continue
		}
		sums[key[:7]] += entry.YieldReturnUSD
	}

	keys := make([]string, 0, len(sums))
	for key := range sums {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(keys) > maxRetainedMonths {
		keys = keys[len(keys)-maxRetainedMonths:]
	}

	months := make([]MonthlyPnL, 0, len(keys))
	for _, key := range keys {
		year, month, ok := splitMonthKey(key)
		if !ok {
			continue
		}

		entry := MonthlyPnL{
			Month: time.Month(month).String()[:3],
			Year:  year,
		}

		baseline, found := monthStartValue(reference, key)
		switch {
		case found:
			entry.Value = sums[key] / baseline * 100
			entry.Baselined = true
		case opts.FallbackBaseline > 0:
			entry.Value = sums[key] / opts.FallbackBaseline * 100
		}

		months = append(months, entry)
	}

	return months
}

// monthStartValue finds the first reference value dated on or after the
// first day of the month.
func monthStartValue(reference []PortfolioValuePoint, monthKey string) (float64, bool) {
	monthStart := monthKey + "-01"
	for _, point := range reference {
		key := DateKey(point.Date)
		if key == "" {
			continue
		}
		if key >= monthStart && point.Value > 0 {
			return point.Value, true
		}
	}
	return 0, false
}

// splitMonthKey parses a YYYY-MM key into year and month numbers.
func splitMonthKey(key string) (year, month int, ok bool) {
	if len(key) != 7 {
		return 0, 0, false
	}

	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return 0, 0, false
	}

	month, err = strconv.Atoi(key[5:])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}

	return year, month, true
}
