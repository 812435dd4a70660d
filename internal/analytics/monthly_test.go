package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateMonthlyPnL(t *testing.T) {
	entries := []YieldEntry{
		{Date: "2024-03-05", YieldReturnUSD: 100},
		{Date: "2024-03-20", YieldReturnUSD: 50},
	}
	reference := []PortfolioValuePoint{
		{Date: "2024-03-01", Value: 10000},
		{Date: "2024-03-15", Value: 10100},
	}

	months := AggregateMonthlyPnL(entries, reference, MonthlyOptions{})

	require.Len(t, months, 1)
	assert.Equal(t, "Mar", months[0].Month)
	assert.Equal(t, 2024, months[0].Year)
	assert.InDelta(t, 1.5, months[0].Value, 1e-9)
	assert.True(t, months[0].Baselined)
}

func TestAggregateMonthlyPnL_DropsUnparsableDates(t *testing.T) {
	entries := []YieldEntry{
		{Date: "not-a-date", YieldReturnUSD: 500},
		{Date: "2024-04-10", YieldReturnUSD: 200},
	}
	reference := []PortfolioValuePoint{{Date: "2024-04-01", Value: 20000}}

	months := AggregateMonthlyPnL(entries, reference, MonthlyOptions{})

	require.Len(t, months, 1)
	assert.Equal(t, "Apr", months[0].Month)
	assert.InDelta(t, 1.0, months[0].Value, 1e-9)
}

func TestAggregateMonthlyPnL_RetainsLastTwelveMonths(t *testing.T) {
	var entries []YieldEntry
	months := []string{
		"2023-01", "2023-02", "2023-03", "2023-04", "2023-05", "2023-06",
		"2023-07", "2023-08", "2023-09", "2023-10", "2023-11", "2023-12",
		"2024-01", "2024-02",
	}
	for _, m := range months {
		entries = append(entries, YieldEntry{Date: m + "-15", YieldReturnUSD: 10})
	}
	reference := []PortfolioValuePoint{{Date: "2023-01-01", Value: 1000}}

	result := AggregateMonthlyPnL(entries, reference, MonthlyOptions{})

	require.Len(t, result, 12)
	// Oldest two months dropped, ascending order preserved.
	assert.Equal(t, "Mar", result[0].Month)
	assert.Equal(t, 2023, result[0].Year)
	assert.Equal(t, "Feb", result[11].Month)
	assert.Equal(t, 2024, result[11].Year)
}

func TestAggregateMonthlyPnL_NoMonthStartValue(t *testing.T) {
	entries := []YieldEntry{{Date: "2024-05-10", YieldReturnUSD: 150}}

	// No fallback configured: the month is emitted unbaselined with value 0.
	noFallback := AggregateMonthlyPnL(entries, nil, MonthlyOptions{})
	require.Len(t, noFallback, 1)
	assert.Equal(t, 0.0, noFallback[0].Value)
	assert.False(t, noFallback[0].Baselined)

	// Configured fallback baseline is applied but flagged as unbaselined.
	withFallback := AggregateMonthlyPnL(entries, nil, MonthlyOptions{FallbackBaseline: 100000})
	require.Len(t, withFallback, 1)
	assert.InDelta(t, 0.15, withFallback[0].Value, 1e-9)
	assert.False(t, withFallback[0].Baselined)
}

func TestAggregateMonthlyPnL_Empty(t *testing.T) {
	assert.Empty(t, AggregateMonthlyPnL(nil, nil, MonthlyOptions{}))
}
