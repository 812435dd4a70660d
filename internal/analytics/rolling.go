package analytics

import (
	"math"

	"github.com/vantagefi/vantage/pkg/formulas"
)

// DefaultRollingWindow is the lookback, in daily observations, for rolling
// Sharpe and volatility series.
const DefaultRollingWindow = 30

// Crypto trades every day of the year.
const tradingDaysPerYear = 365

// SharpePoint is a rolling-Sharpe entry with a display label.
type SharpePoint struct {
	Date           string  `json:"date"`
	Value          float64 `json:"value"`
	Interpretation string  `json:"interpretation"`
}

// VolatilityPoint is a rolling annualized-volatility entry with a risk label.
type VolatilityPoint struct {
	Date      string  `json:"date"`
	Value     float64 `json:"value"`
	RiskLevel string  `json:"risk_level"`
}

// Volatility risk-level thresholds, in percent.
const (
	lowVolatilityMax      = 20.0
	moderateVolatilityMax = 40.0
)

// ClassifySharpeSeries labels each rolling-Sharpe point. Classification is
// stateless per point; non-finite values are dropped.
func ClassifySharpeSeries(series []RollingPoint) []SharpePoint {
	points := make([]SharpePoint, 0, len(series))

	for _, p := range series {
		if !isFinite(p.Value) {
			continue
		}
		points = append(points, SharpePoint{
			Date:           p.Date,
			Value:          p.Value,
			Interpretation: interpretSharpe(p.Value),
		})
	}

	return points
}

// ClassifyVolatilitySeries labels each rolling-volatility point. Non-finite
// values are dropped.
func ClassifyVolatilitySeries(series []RollingPoint) []VolatilityPoint {
	points := make([]VolatilityPoint, 0, len(series))

	for _, p := range series {
		if !isFinite(p.Value) {
			continue
		}
		points = append(points, VolatilityPoint{
			Date:      p.Date,
			Value:     p.Value,
			RiskLevel: volatilityRiskLevel(p.Value),
		})
	}

	return points
}

func interpretSharpe(value float64) string {
	switch {
	case value >= 3:
		return "Excellent"
	case value >= 2:
		return "Very good"
	case value >= 1:
		return "Good"
	case value >= 0:
		return "Acceptable"
	default:
		return "Poor"
	}
}

func volatilityRiskLevel(value float64) string {
	switch {
	case value < lowVolatilityMax:
		return "Low risk"
	case value < moderateVolatilityMax:
		return "Moderate"
	default:
		return "High risk"
	}
}

// RollingSharpeSeries computes an annualized Sharpe ratio over a sliding
// window of daily values. The first window-1 dates produce no point.
// A zero risk-free rate is assumed.
func RollingSharpeSeries(values []PortfolioValuePoint, window int) []RollingPoint {
	if window < 2 {
		window = DefaultRollingWindow
	}

	var series []RollingPoint
	for end := window; end <= len(values); end++ {
		windowValues := make([]float64, window)
		for i, p := range values[end-window : end] {
			windowValues[i] = p.Value
		}

		returns := formulas.CalculateReturns(windowValues)
		if len(returns) == 0 {
			continue
		}

		mean := formulas.Mean(returns)
		stdDev := formulas.StdDev(returns)
		if stdDev == 0 {
			continue
		}

		sharpe := (mean * tradingDaysPerYear) / (stdDev * math.Sqrt(tradingDaysPerYear))
		if !isFinite(sharpe) {
			continue
		}

		series = append(series, RollingPoint{
			Date:  DateKey(values[end-1].Date),
			Value: sharpe,
		})
	}

	return series
}

// RollingVolatilitySeries computes annualized volatility, in percent, over a
// sliding window of daily values.
func RollingVolatilitySeries(values []PortfolioValuePoint, window int) []RollingPoint {
	if window < 2 {
		window = DefaultRollingWindow
	}

	var series []RollingPoint
	for end := window; end <= len(values); end++ {
		windowValues := make([]float64, window)
		for i, p := range values[end-window : end] {
			windowValues[i] = p.Value
		}

		returns := formulas.CalculateReturns(windowValues)
		if len(returns) == 0 {
			continue
		}

		vol := formulas.AnnualizedVolatility(returns) * 100
		if !isFinite(vol) {
			continue
		}

		series = append(series, RollingPoint{
			Date:  DateKey(values[end-1].Date),
			Value: vol,
		})
	}

	return series
}

// isFinite reports whether v is neither NaN nor infinite.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
