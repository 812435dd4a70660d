package analytics

import "time"

// PlaceholderMetric builds the neutral metric shown whenever upstream data
// is insufficient to compute the real one.
func PlaceholderMetric(value, subValue string) MetricData {
	return MetricData{
		Value:    value,
		SubValue: subValue,
		Trend:    TrendNeutral,
	}
}

// SharpePercentile maps a Sharpe ratio onto an illustrative "top N%"
// ranking. This is a step-function approximation for display purposes, not
// a statistically derived percentile.
func SharpePercentile(sharpe float64) int {
	switch {
	case sharpe > 3:
		return 1
	case sharpe > 2:
		return 5
	case sharpe > 1.5:
		return 10
	case sharpe > 1:
		return 25
	default:
		return 50
	}
}

// UnderwaterPoint is one entry of a server-provided underwater series.
type UnderwaterPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"`
}

// DrawdownSummaryData is the normalized form of the dashboard response's
// drawdown analysis section.
type DrawdownSummaryData struct {
	MaxDrawdownPct  float64          `json:"max_drawdown_pct"`
	MaxDrawdownDate string           `json:"max_drawdown_date"`
	RecoveryDays    int              `json:"recovery_days"`
	UnderwaterData  []UnderwaterPoint `json:"underwater_data"`
}

// ExtractDrawdownSummary defensively unwraps the loosely-typed dashboard
// response shape (drawdown_analysis.enhanced.summary.*, plus the
// underwater_recovery.underwater_data array), filling defaults for every
// missing field. Arbitrarily sparse or malformed input never panics.
func ExtractDrawdownSummary(response map[string]interface{}) DrawdownSummaryData {
	summary := DrawdownSummaryData{
		MaxDrawdownDate: time.Now().UTC().Format(time.RFC3339),
		UnderwaterData:  []UnderwaterPoint{},
	}

	analysis := dig(response, "drawdown_analysis")
	enhanced := dig(analysis, "enhanced", "summary")

	summary.MaxDrawdownPct = asFloat(dig(enhanced, "max_drawdown_pct"), 0)
	if date := asString(dig(enhanced, "max_drawdown_date"), ""); date != "" {
		summary.MaxDrawdownDate = date
	}
	summary.RecoveryDays = int(asFloat(dig(enhanced, "recovery_days"), 0))

	rawPoints, _ := dig(analysis, "underwater_recovery", "underwater_data").([]interface{})
	for _, raw := range rawPoints {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		summary.UnderwaterData = append(summary.UnderwaterData, UnderwaterPoint{
			Date:     asString(entry["date"], ""),
			Drawdown: asFloat(entry["drawdown"], 0),
		})
	}

	return summary
}

// dig walks nested map[string]interface{} values, returning nil as soon as
// any level is missing or not a map.
func dig(value interface{}, keys ...string) interface{} {
	current := value
	for _, key := range keys {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

// asFloat coerces JSON-decoded numbers to float64 with a default.
func asFloat(value interface{}, fallback float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}

// asString coerces a value to string with a default.
func asString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fallback
}
