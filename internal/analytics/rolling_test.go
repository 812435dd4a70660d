package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySharpeSeries(t *testing.T) {
	series := []RollingPoint{
		{Date: "2024-01-01", Value: 3.2},
		{Date: "2024-01-02", Value: 2.4},
		{Date: "2024-01-03", Value: 1.1},
		{Date: "2024-01-04", Value: 0.3},
		{Date: "2024-01-05", Value: -0.8},
	}

	points := ClassifySharpeSeries(series)
	require.Len(t, points, 5)

	assert.Equal(t, "Excellent", points[0].Interpretation)
	assert.Equal(t, "Very good", points[1].Interpretation)
	assert.Equal(t, "Good", points[2].Interpretation)
	assert.Equal(t, "Acceptable", points[3].Interpretation)
	assert.Equal(t, "Poor", points[4].Interpretation)
}

func TestClassifySharpeSeries_DropsNonFinite(t *testing.T) {
	series := []RollingPoint{
		{Date: "2024-01-01", Value: math.NaN()},
		{Date: "2024-01-02", Value: math.Inf(1)},
		{Date: "2024-01-03", Value: 1.5},
	}

	points := ClassifySharpeSeries(series)

	require.Len(t, points, 1)
	assert.Equal(t, "2024-01-03", points[0].Date)
}

func TestClassifyVolatilitySeries(t *testing.T) {
	series := []RollingPoint{
		{Date: "2024-01-01", Value: 12},
		{Date: "2024-01-02", Value: 27},
		{Date: "2024-01-03", Value: 55},
	}

	points := ClassifyVolatilitySeries(series)
	require.Len(t, points, 3)

	assert.Equal(t, "Low risk", points[0].RiskLevel)
	assert.Equal(t, "Moderate", points[1].RiskLevel)
	assert.Equal(t, "High risk", points[2].RiskLevel)
}

func TestClassifyVolatilitySeries_Empty(t *testing.T) {
	assert.Empty(t, ClassifyVolatilitySeries(nil))
}

func TestRollingSharpeSeries(t *testing.T) {
	values := []PortfolioValuePoint{
		{Date: "2024-01-01", Value: 100},
		{Date: "2024-01-02", Value: 102},
		{Date: "2024-01-03", Value: 101},
		{Date: "2024-01-04", Value: 104},
		{Date: "2024-01-05", Value: 103},
	}

	series := RollingSharpeSeries(values, 3)

	// 5 points with a window of 3 yield 3 rolling entries
	require.Len(t, series, 3)
	assert.Equal(t, "2024-01-03", series[0].Date)
	assert.Equal(t, "2024-01-05", series[2].Date)
	for _, p := range series {
		assert.False(t, math.IsNaN(p.Value))
	}
}

func TestRollingSharpeSeries_ConstantValues(t *testing.T) {
	values := []PortfolioValuePoint{
		{Date: "2024-01-01", Value: 100},
		{Date: "2024-01-02", Value: 100},
		{Date: "2024-01-03", Value: 100},
		{Date: "2024-01-04", Value: 100},
	}

	// Zero variance windows produce no points instead of NaN
	assert.Empty(t, RollingSharpeSeries(values, 3))
}

func TestRollingVolatilitySeries(t *testing.T) {
	values := []PortfolioValuePoint{
		{Date: "2024-01-01", Value: 100},
		{Date: "2024-01-02", Value: 110},
		{Date: "2024-01-03", Value: 99},
		{Date: "2024-01-04", Value: 105},
	}

	series := RollingVolatilitySeries(values, 3)

	require.Len(t, series, 2)
	for _, p := range series {
		assert.Greater(t, p.Value, 0.0)
	}
}

func TestRollingSeries_TooFewValues(t *testing.T) {
	values := []PortfolioValuePoint{{Date: "2024-01-01", Value: 100}}

	assert.Empty(t, RollingSharpeSeries(values, 30))
	assert.Empty(t, RollingVolatilitySeries(values, 30))
}
