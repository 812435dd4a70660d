// Package analytics contains the pure transformation pipeline that turns raw
// portfolio time-series into chart-ready series and summary metrics.
//
// Every function in this package is synchronous, deterministic and free of
// I/O. Inputs are never mutated, and malformed data degrades to documented
// defaults instead of returning errors - the HTTP layer can always render
// whatever comes out of here.
package analytics

// PortfolioValuePoint is a single day of the portfolio value series.
// The series is expected in chronological ascending order; transformers do
// not re-sort.
type PortfolioValuePoint struct {
	Date          string   `json:"date"`
	Value         float64  `json:"value"` // USD
	PnLPercentage *float64 `json:"pnl_percentage,omitempty"`
}

// DrawdownPoint is the percentage decline from the running peak at one date.
// Drawdown is always <= 0, with 0 at every new peak.
type DrawdownPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"`
}

// DrawdownRecoveryPoint annotates a DrawdownPoint with recovery-cycle state.
// The annotation of each point depends on the accumulated state of all prior
// points in the same series.
type DrawdownRecoveryPoint struct {
	Date                 string   `json:"date"`
	Drawdown             float64  `json:"drawdown"`
	IsRecoveryPoint      bool     `json:"is_recovery_point"`
	PeakDate             string   `json:"peak_date"`
	DaysFromPeak         *int     `json:"days_from_peak,omitempty"`
	RecoveryDurationDays *int     `json:"recovery_duration_days,omitempty"`
	RecoveryDepth        *float64 `json:"recovery_depth,omitempty"`
}

// DrawdownRecoverySummary is the aggregate view of a recovery-annotated series.
type DrawdownRecoverySummary struct {
	MaxDrawdown                float64 `json:"max_drawdown"`
	TotalRecoveries            int     `json:"total_recoveries"`
	AverageRecoveryDays        *int    `json:"average_recovery_days"`
	CurrentDrawdown            float64 `json:"current_drawdown"`
	CurrentStatus              string  `json:"current_status"`
	LatestPeakDate             string  `json:"latest_peak_date,omitempty"`
	LatestRecoveryDurationDays *int    `json:"latest_recovery_duration_days,omitempty"`
}

// DrawdownRecoveryInsights bundles the annotated series with its summary.
type DrawdownRecoveryInsights struct {
	Data    []DrawdownRecoveryPoint `json:"data"`
	Summary DrawdownRecoverySummary `json:"summary"`
}

// BenchmarkSnapshot is one observed benchmark (BTC) price.
type BenchmarkSnapshot struct {
	Date     string  `json:"date"`
	PriceUSD float64 `json:"price_usd"`
}

// RollingPoint is one entry of a pre-computed rolling-analytics series
// (rolling Sharpe, annualized volatility) as delivered by the data source.
type RollingPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MetricData is a display-ready scalar metric.
type MetricData struct {
	Value    string `json:"value"`
	SubValue string `json:"sub_value"`
	Trend    string `json:"trend"` // "up" | "down" | "neutral"
}

// Trend labels used by MetricData.
const (
	TrendUp      = "up"
	TrendDown    = "down"
	TrendNeutral = "neutral"
)

// YieldEntry is a single day of realized yield returns.
type YieldEntry struct {
	Date           string  `json:"date"`
	YieldReturnUSD float64 `json:"yield_return_usd"`
}

// MonthlyPnL is the percentage return of one calendar month.
// Baselined reports whether a real month-start portfolio value was found;
// when false the value was computed against a configured fallback baseline,
// or reported as 0 when no fallback is configured.
type MonthlyPnL struct {
	Month     string  `json:"month"` // 3-letter month name
	Year      int     `json:"year"`
	Value     float64 `json:"value"`
	Baselined bool    `json:"baselined"`
}

// AllocationPoint is the per-category allocation at one date, in percent.
// Categories are not required to sum to 100; the caller's category set may
// be incomplete.
type AllocationPoint struct {
	Date       string  `json:"date"`
	BTC        float64 `json:"btc"`
	ETH        float64 `json:"eth"`
	Stablecoin float64 `json:"stablecoin"`
	Altcoin    float64 `json:"altcoin"`
}

// RawAllocationRow is one per-protocol allocation record before aggregation.
type RawAllocationRow struct {
	Date          string  `json:"date"`
	Protocol      string  `json:"protocol"`
	Category      string  `json:"category"`
	Percentage    float64 `json:"percentage"`
	CategoryValue float64 `json:"category_value"`
}
