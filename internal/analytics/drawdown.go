package analytics

import (
	"math"
	"time"
)

// Recovery status labels.
const (
	StatusAtPeak     = "At Peak"
	StatusUnderwater = "Underwater"
)

// recoveryEpsilon is the at-peak tolerance band, as a fraction of the peak.
// Points whose drawdown is within -0.05% of the peak are treated as at-peak
// so floating point noise in the value series cannot fabricate micro-cycles.
const recoveryEpsilon = 0.0005

// DefaultRecoveryThreshold is the drawdown (in percent) at or below which
// the portfolio is reported as underwater in the summary.
const DefaultRecoveryThreshold = -recoveryEpsilon * 100

// recoveryAccumulator is the state threaded through the point-by-point scan.
// Each step receives the previous accumulator by value and returns the next
// one, so a single pass stays referentially transparent.
type recoveryAccumulator struct {
	lastPeakTime        time.Time
	lastPeakDate        string
	underwaterStartTime time.Time
	underwaterStartDate string
	currentCycleMin     float64
	isUnderwater        bool
	previousDrawdown    float64

	annotations       []DrawdownRecoveryPoint
	recoveryDurations []int
}

// CalculateDrawdownSeries converts a portfolio value series into percent
// drawdowns from the running peak. The result is non-positive everywhere and
// exactly 0 at every new peak. A non-positive running peak yields 0.
func CalculateDrawdownSeries(values []PortfolioValuePoint) []DrawdownPoint {
	if len(values) == 0 {
		return []DrawdownPoint{}
	}

	points := make([]DrawdownPoint, 0, len(values))
	peak := 0.0

	for _, v := range values {
		if v.Value > peak {
			peak = v.Value
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = (v.Value - peak) / peak * 100
		}

		points = append(points, DrawdownPoint{Date: v.Date, Drawdown: drawdown})
	}

	return points
}

// BuildDrawdownRecoveryInsights runs the full pipeline: drawdown series,
// recovery annotation and summary, using the default recovery threshold.
func BuildDrawdownRecoveryInsights(values []PortfolioValuePoint) DrawdownRecoveryInsights {
	return BuildDrawdownRecoveryInsightsWithThreshold(values, DefaultRecoveryThreshold)
}

// BuildDrawdownRecoveryInsightsWithThreshold is BuildDrawdownRecoveryInsights
// with a caller-supplied recovery threshold (percent, <= 0).
func BuildDrawdownRecoveryInsightsWithThreshold(values []PortfolioValuePoint, recoveryThreshold float64) DrawdownRecoveryInsights {
	return AnnotateRecoveries(CalculateDrawdownSeries(values), recoveryThreshold)
}

// AnnotateRecoveries scans a drawdown series once, annotating each point with
// peak/underwater state and detecting recovery events, then derives the
// summary. Empty input produces an empty series and a neutral summary.
func AnnotateRecoveries(points []DrawdownPoint, recoveryThreshold float64) DrawdownRecoveryInsights {
	if len(points) == 0 {
		return DrawdownRecoveryInsights{
			Data: []DrawdownRecoveryPoint{},
			Summary: DrawdownRecoverySummary{
				MaxDrawdown:   0,
				CurrentStatus: StatusAtPeak,
			},
		}
	}

	acc := seedAccumulator(points[0])
	for _, pt := range points[1:] {
		acc = acc.step(pt)
	}

	return DrawdownRecoveryInsights{
		Data:    acc.annotations,
		Summary: acc.summarize(points, recoveryThreshold),
	}
}

// seedAccumulator creates the initial state from the first data point.
// The first point is its own best-known peak; a series that starts already
// below peak gets no measured episode start, only the recovery marker later.
func seedAccumulator(first DrawdownPoint) recoveryAccumulator {
	ts, _ := parseDateUTC(first.Date)

	ann := DrawdownRecoveryPoint{
		Date:     first.Date,
		Drawdown: first.Drawdown,
		PeakDate: first.Date,
	}
	if first.Drawdown >= -recoveryEpsilon*100 {
		zero := 0
		ann.DaysFromPeak = &zero
	}

	return recoveryAccumulator{
		lastPeakTime:     ts,
		lastPeakDate:     first.Date,
		currentCycleMin:  first.Drawdown,
		previousDrawdown: first.Drawdown,
		annotations:      []DrawdownRecoveryPoint{ann},
	}
}

// step advances the accumulator by one point and records its annotation.
func (acc recoveryAccumulator) step(pt DrawdownPoint) recoveryAccumulator {
	epsilonPct := recoveryEpsilon * 100
	ts, hasTS := parseDateUTC(pt.Date)

	ann := DrawdownRecoveryPoint{
		Date:     pt.Date,
		Drawdown: pt.Drawdown,
	}

	if pt.Drawdown >= -epsilonPct {
		// At peak (within the epsilon band).
		zero := 0
		ann.PeakDate = pt.Date
		ann.DaysFromPeak = &zero

		if acc.isUnderwater {
			// Emerging from a measured underwater episode.
			days := roundDays(acc.underwaterStartTime, ts)
			depth := acc.currentCycleMin
			ann.RecoveryDurationDays = &days
			ann.RecoveryDepth = &depth
			ann.IsRecoveryPoint = true
			acc.recoveryDurations = append(acc.recoveryDurations, days)
		} else if acc.previousDrawdown < -epsilonPct {
			// Data started below peak: mark the recovery without a duration.
			ann.IsRecoveryPoint = true
		}

		if hasTS {
			acc.lastPeakTime = ts
		}
		acc.lastPeakDate = pt.Date
		acc.isUnderwater = false
		acc.currentCycleMin = 0
	} else {
		// Underwater.
		if !acc.isUnderwater {
			acc.underwaterStartTime = acc.lastPeakTime
			acc.underwaterStartDate = acc.lastPeakDate
			acc.currentCycleMin = pt.Drawdown
			acc.isUnderwater = true
		} else {
			acc.currentCycleMin = math.Min(acc.currentCycleMin, pt.Drawdown)
		}

		days := roundDays(acc.underwaterStartTime, ts)
		ann.PeakDate = acc.lastPeakDate
		ann.DaysFromPeak = &days
	}

	acc.previousDrawdown = pt.Drawdown
	acc.annotations = append(acc.annotations, ann)
	return acc
}

// summarize derives the series-level summary from the finished accumulator.
func (acc recoveryAccumulator) summarize(points []DrawdownPoint, recoveryThreshold float64) DrawdownRecoverySummary {
	maxDrawdown := 0.0
	for _, pt := range points {
		if pt.Drawdown < maxDrawdown {
			maxDrawdown = pt.Drawdown
		}
	}

	currentDrawdown := points[len(points)-1].Drawdown
	status := StatusAtPeak
	if currentDrawdown <= recoveryThreshold {
		status = StatusUnderwater
	}

	summary := DrawdownRecoverySummary{
		MaxDrawdown:     maxDrawdown,
		TotalRecoveries: len(acc.recoveryDurations),
		CurrentDrawdown: currentDrawdown,
		CurrentStatus:   status,
		LatestPeakDate:  acc.lastPeakDate,
	}

	// Recoveries without a measured duration still count.
	for _, ann := range acc.annotations {
		if ann.IsRecoveryPoint && ann.RecoveryDurationDays == nil {
			summary.TotalRecoveries++
		}
	}

	if len(acc.recoveryDurations) > 0 {
		sum := 0
		for _, d := range acc.recoveryDurations {
			sum += d
		}
		avg := int(math.Round(float64(sum) / float64(len(acc.recoveryDurations))))
		summary.AverageRecoveryDays = &avg

		latest := acc.recoveryDurations[len(acc.recoveryDurations)-1]
		summary.LatestRecoveryDurationDays = &latest
	}

	return summary
}

// roundDays measures the whole-day distance between two timestamps, floored
// at 0 to absorb timestamp anomalies in the source data.
func roundDays(from, to time.Time) int {
	if from.IsZero() || to.IsZero() {
		return 0
	}

	days := int(math.Round(to.Sub(from).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}
