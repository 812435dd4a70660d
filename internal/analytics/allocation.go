package analytics

import (
	"sort"
	"strings"
)

// AllocationSlice is one pie-chart wedge of the current allocation.
type AllocationSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AllocationView is the chart-ready allocation bundle: the per-category
// history, the latest snapshot and a filtered, sorted pie breakdown.
type AllocationView struct {
	History   []AllocationPoint `json:"history"`
	Current   *AllocationPoint  `json:"current"`
	Breakdown []AllocationSlice `json:"breakdown"`
}

// NormalizeAllocationRecords accepts the loosely-typed allocation payload,
// which carries either pre-aggregated per-date category percentages or raw
// per-protocol rows, and normalizes both shapes into a per-category time
// series. A record counts as pre-aggregated when it has the aggregated
// numeric keys and none of the raw-row keys; raw rows are grouped and
// summed per date by BuildAllocationHistory.
func NormalizeAllocationRecords(records []map[string]interface{}) []AllocationPoint {
	if len(records) == 0 {
		return []AllocationPoint{}
	}

	var points []AllocationPoint
	var rows []RawAllocationRow

	for _, record := range records {
		if isAggregatedRecord(record) {
			points = append(points, AllocationPoint{
				Date:       asString(record["date"], ""),
				BTC:        asFloat(record["btc"], 0),
				ETH:        asFloat(record["eth"], 0),
				Stablecoin: asFloat(record["stablecoin"], 0),
				Altcoin:    asFloat(record["altcoin"], 0),
			})
			continue
		}

		if hasRawProps(record) {
			rows = append(rows, RawAllocationRow{
				Date:          asString(record["date"], ""),
				Protocol:      asString(record["protocol"], ""),
				Category:      asString(record["category"], ""),
				Percentage:    asFloat(record["percentage"], 0),
				CategoryValue: asFloat(record["category_value"], 0),
			})
		}
	}

	if len(rows) > 0 {
		return BuildAllocationHistory(rows)
	}
	if points == nil {
		return []AllocationPoint{}
	}
	return points
}

// BuildAllocationHistory aggregates raw per-protocol rows into one
// AllocationPoint per date, summing percentages into the four categories.
// Rows with unparsable dates are dropped; output is ascending by date.
func BuildAllocationHistory(rows []RawAllocationRow) []AllocationPoint {
	byDate := make(map[string]*AllocationPoint)

	for _, row := range rows {
		key := DateKey(row.Date)
		if key == "" {
			continue
		}

		point, ok := byDate[key]
		if !ok {
			point = &AllocationPoint{Date: key}
			byDate[key] = point
		}

		switch canonicalCategory(row.Category) {
		case "btc":
			point.BTC += row.Percentage
		case "eth":
			point.ETH += row.Percentage
		case "stablecoin":
			point.Stablecoin += row.Percentage
		default:
			point.Altcoin += row.Percentage
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	history := make([]AllocationPoint, 0, len(dates))
	for _, date := range dates {
		history = append(history, *byDate[date])
	}

	return history
}

// BuildAllocationView derives the latest snapshot and the pie-chart
// breakdown (zero and negative categories filtered, sorted descending by
// value) from a per-category history.
func BuildAllocationView(history []AllocationPoint) AllocationView {
	view := AllocationView{
		History:   history,
		Breakdown: []AllocationSlice{},
	}
	if len(history) == 0 {
		return view
	}

	current := history[len(history)-1]
	view.Current = &current

	slices := []AllocationSlice{
		{Name: "BTC", Value: current.BTC},
		{Name: "ETH", Value: current.ETH},
		{Name: "Stablecoin", Value: current.Stablecoin},
		{Name: "Altcoin", Value: current.Altcoin},
	}
	for _, slice := range slices {
		if slice.Value > 0 {
			view.Breakdown = append(view.Breakdown, slice)
		}
	}

	sort.SliceStable(view.Breakdown, func(i, j int) bool {
		return view.Breakdown[i].Value > view.Breakdown[j].Value
	})

	return view
}

// isAggregatedRecord reports whether a record carries the pre-aggregated
// shape: all four category keys as numbers and no raw-row keys.
func isAggregatedRecord(record map[string]interface{}) bool {
	for _, key := range []string{"btc", "eth", "stablecoin", "altcoin"} {
		switch record[key].(type) {
		case float64, float32, int, int64:
		default:
			return false
		}
	}
	return !hasRawProps(record)
}

// hasRawProps reports whether a record looks like a raw per-protocol row.
func hasRawProps(record map[string]interface{}) bool {
	for _, key := range []string{"category", "percentage", "category_value"} {
		if _, ok := record[key]; ok {
			return true
		}
	}
	return false
}

// canonicalCategory folds free-form category names into the four buckets.
func canonicalCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "btc", "bitcoin", "wbtc":
		return "btc"
	case "eth", "ethereum", "weth", "steth":
		return "eth"
	case "stablecoin", "stablecoins", "stable", "usdc", "usdt", "dai":
		return "stablecoin"
	default:
		return "altcoin"
	}
}
