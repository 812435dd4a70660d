package analytics

import (
	"fmt"

	"github.com/vantagefi/vantage/pkg/formulas"
)

// KeyMetrics is the dashboard's aggregate metric bundle. Every field is
// recomputed fresh on each call; there is no persisted state.
type KeyMetrics struct {
	TimeWeightedReturn MetricData `json:"time_weighted_return"`
	MaxDrawdown        MetricData `json:"max_drawdown"`
	SharpeRatio        MetricData `json:"sharpe_ratio"`
	WinRate            MetricData `json:"win_rate"`
	Volatility         MetricData `json:"volatility"`
	SortinoRatio       MetricData `json:"sortino_ratio"`
	Beta               MetricData `json:"beta"`
	Alpha              MetricData `json:"alpha"`
}

// mockBTCReturnDelta is the illustrative "vs BTC" delta used when no
// benchmark snapshots are supplied. Kept only as a last-resort fallback;
// when benchmark data is available the real benchmark return is used.
const mockBTCReturnDelta = 15.0

// CalculateKeyMetrics derives the aggregate scalar metrics from the raw
// series. Any series may be empty; missing data degrades to placeholders.
func CalculateKeyMetrics(
	values []PortfolioValuePoint,
	sharpeSeries []RollingPoint,
	volatilitySeries []RollingPoint,
	snapshots []BenchmarkSnapshot,
) KeyMetrics {
	return KeyMetrics{
		TimeWeightedReturn: timeWeightedReturnMetric(values, snapshots),
		MaxDrawdown:        maxDrawdownMetric(values),
		SharpeRatio:        sharpeMetric(sharpeSeries),
		WinRate:            winRateMetric(values),
		Volatility:         volatilityMetric(volatilitySeries),
		SortinoRatio:       PlaceholderMetric("N/A", "Coming soon"),
		Beta:               PlaceholderMetric("N/A", "vs BTC"),
		Alpha:              PlaceholderMetric("N/A", "vs BTC"),
	}
}

// timeWeightedReturnMetric computes (last-first)/first over the series.
// The "vs BTC" subvalue uses the real benchmark return whenever snapshots
// overlap the portfolio timeline, and the mock delta otherwise.
func timeWeightedReturnMetric(values []PortfolioValuePoint, snapshots []BenchmarkSnapshot) MetricData {
	if len(values) < 2 || values[0].Value == 0 {
		return PlaceholderMetric("N/A", "Insufficient data")
	}

	first := values[0].Value
	last := values[len(values)-1].Value
	returnPct := (last - first) / first * 100

	delta := returnPct - mockBTCReturnDelta
	if btcReturn, ok := benchmarkReturn(values, snapshots); ok {
		delta = returnPct - btcReturn
	}

	trend := TrendNeutral
	if returnPct > 0 {
		trend = TrendUp
	} else if returnPct < 0 {
		trend = TrendDown
	}

	return MetricData{
		Value:    fmt.Sprintf("%+.2f%%", returnPct),
		SubValue: fmt.Sprintf("%+.2f%% vs BTC", delta),
		Trend:    trend,
	}
}

// benchmarkReturn computes the benchmark's percent return between the
// baseline date and the latest portfolio date with a benchmark price.
func benchmarkReturn(values []PortfolioValuePoint, snapshots []BenchmarkSnapshot) (float64, bool) {
	priceMap := BuildBTCPriceMap(snapshots)
	firstPrice, _ := FindBTCBaseline(values, priceMap)
	if firstPrice == nil || *firstPrice <= 0 {
		return 0, false
	}

	// Latest portfolio date with an observed benchmark price.
	for i := len(values) - 1; i >= 0; i-- {
		key := DateKey(values[i].Date)
		if key == "" {
			continue
		}
		if price, ok := priceMap[key]; ok && price > 0 {
			return (price - *firstPrice) / *firstPrice * 100, true
		}
	}

	return 0, false
}

func maxDrawdownMetric(values []PortfolioValuePoint) MetricData {
	if len(values) == 0 {
		return PlaceholderMetric("N/A", "Insufficient data")
	}

	summary := BuildDrawdownRecoveryInsights(values).Summary

	trend := TrendDown
	if summary.MaxDrawdown > -15 {
		trend = TrendUp
	}

	subValue := summary.CurrentStatus
	if summary.AverageRecoveryDays != nil {
		subValue = fmt.Sprintf("Avg recovery %d days", *summary.AverageRecoveryDays)
	}

	return MetricData{
		Value:    fmt.Sprintf("%.2f%%", summary.MaxDrawdown),
		SubValue: subValue,
		Trend:    trend,
	}
}

func sharpeMetric(series []RollingPoint) MetricData {
	mean, ok := finiteSeriesMean(series)
	if !ok {
		return PlaceholderMetric("N/A", "Insufficient data")
	}

	trend := TrendDown
	switch {
	case mean > 1.5:
		trend = TrendUp
	case mean > 0.5:
		trend = TrendNeutral
	}

	return MetricData{
		Value:    fmt.Sprintf("%.2f", mean),
		SubValue: fmt.Sprintf("Top %d%%", SharpePercentile(mean)),
		Trend:    trend,
	}
}

func winRateMetric(values []PortfolioValuePoint) MetricData {
	if len(values) == 0 {
		return PlaceholderMetric("N/A", "Insufficient data")
	}

	positive := 0
	for _, v := range values {
		if v.PnLPercentage != nil && *v.PnLPercentage > 0 {
			positive++
		}
	}

	winRate := float64(positive) / float64(len(values)) * 100

	trend := TrendDown
	if winRate >= 50 {
		trend = TrendUp
	}

	return MetricData{
		Value:    fmt.Sprintf("%.1f%%", winRate),
		SubValue: fmt.Sprintf("%d of %d days", positive, len(values)),
		Trend:    trend,
	}
}

func volatilityMetric(series []RollingPoint) MetricData {
	mean, ok := finiteSeriesMean(series)
	if !ok {
		return PlaceholderMetric("N/A", "Insufficient data")
	}

	trend := TrendDown
	if mean < 25 {
		trend = TrendUp
	}

	return MetricData{
		Value:    fmt.Sprintf("%.1f%%", mean),
		SubValue: volatilityRiskLevel(mean),
		Trend:    trend,
	}
}

// finiteSeriesMean averages the finite values of a rolling series.
func finiteSeriesMean(series []RollingPoint) (float64, bool) {
	raw := make([]float64, len(series))
	for i, p := range series {
		raw[i] = p.Value
	}
	return formulas.FiniteMean(raw)
}
