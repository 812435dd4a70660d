package analytics

import (
	"github.com/vantagefi/vantage/pkg/formulas"
)

// smoothingWindow is the SMA window for the optional smoothed overlay.
const smoothingWindow = 7

// PerformancePoint is one chart-ready point of the normalized portfolio
// series aligned against the benchmark. X is evenly spaced across [0,100]
// by index; Portfolio and BTC are on the inverted 0-100 visualization scale.
// Raw USD values are carried for tooltip display.
type PerformancePoint struct {
	X            float64  `json:"x"`
	Date         string   `json:"date"`
	Portfolio    float64  `json:"portfolio"`
	BTC          *float64 `json:"btc"`
	Smoothed     *float64 `json:"smoothed,omitempty"`
	PortfolioUSD float64  `json:"portfolio_usd"`
	BTCUSD       *float64 `json:"btc_usd,omitempty"`
}

// BuildPerformanceChart normalizes a daily-value series to the 0-100
// visualization scale and aligns it against the benchmark series.
// Range statistics are computed over strictly-positive portfolio values;
// non-positive values are excluded from the range but still plotted using
// the range minimum as a floor. When no positive values exist at all the
// chart is empty and the caller should render an empty state.
func BuildPerformanceChart(values []PortfolioValuePoint, snapshots []BenchmarkSnapshot) []PerformancePoint {
	min, rng, ok := positiveRange(values)
	if !ok {
		return []PerformancePoint{}
	}

	priceMap := BuildBTCPriceMap(snapshots)
	firstBTCPrice, firstBTCDate := FindBTCBaseline(values, priceMap)
	baselineValue := portfolioValueAt(values, firstBTCDate)

	raw := make([]float64, len(values))
	for i, v := range values {
		raw[i] = v.Value
	}
	smoothed := formulas.SMA(raw, smoothingWindow)

	points := make([]PerformancePoint, 0, len(values))
	for i, v := range values {
		x := 0.0
		if len(values) > 1 {
			x = float64(i) / float64(len(values)-1) * 100
		}

		plotted := v.Value
		if plotted <= 0 {
			plotted = min
		}

		point := PerformancePoint{
			X:            x,
			Date:         v.Date,
			Portfolio:    NormalizeToScale(plotted, min, rng),
			PortfolioUSD: v.Value,
		}

		if sm := smoothed[i]; sm != nil && *sm > 0 {
			normalized := NormalizeToScale(*sm, min, rng)
			point.Smoothed = &normalized
		}

		if btcUSD := BTCEquivalent(DateKey(v.Date), priceMap, firstBTCPrice, baselineValue); btcUSD != nil {
			normalized := clampScale(NormalizeToScale(*btcUSD, min, rng))
			point.BTC = &normalized
			point.BTCUSD = btcUSD
		}

		points = append(points, point)
	}

	return points
}

// positiveRange computes min and range over the strictly-positive values.
// ok is false when the series has no positive value.
func positiveRange(values []PortfolioValuePoint) (min, rng float64, ok bool) {
	max := 0.0
	for _, v := range values {
		if v.Value <= 0 {
			continue
		}
		if !ok || v.Value < min {
			min = v.Value
		}
		if v.Value > max {
			max = v.Value
		}
		ok = true
	}

	return min, max - min, ok
}

// portfolioValueAt returns the portfolio value on the given date key, or 0
// when the date is absent.
func portfolioValueAt(values []PortfolioValuePoint, dateKey string) float64 {
	if dateKey == "" {
		return 0
	}
	for _, v := range values {
		if DateKey(v.Date) == dateKey {
			return v.Value
		}
	}
	return 0
}

// clampScale bounds a normalized value into [0,100].
func clampScale(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
