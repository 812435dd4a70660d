package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates a simple moving average over the given period.
// The first period-1 entries of the result carry no value and are returned
// as nil; the slice is aligned index-for-index with the input. Input shorter
// than the period yields all-nil.
func SMA(values []float64, period int) []*float64 {
	smoothed := make([]*float64, len(values))
	if period < 1 || len(values) < period {
		return smoothed
	}

	raw := talib.Sma(values, period)
	for i := period - 1; i < len(raw); i++ {
		v := raw[i]
		smoothed[i] = &v
	}

	return smoothed
}
