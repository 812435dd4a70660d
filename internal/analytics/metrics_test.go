package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderMetric(t *testing.T) {
	metric := PlaceholderMetric("N/A", "Coming soon")

	assert.Equal(t, "N/A", metric.Value)
	assert.Equal(t, "Coming soon", metric.SubValue)
	assert.Equal(t, TrendNeutral, metric.Trend)
}

func TestSharpePercentile(t *testing.T) {
	assert.Equal(t, 1, SharpePercentile(3.5))
	assert.Equal(t, 5, SharpePercentile(2.1))
	assert.Equal(t, 10, SharpePercentile(1.7))
	assert.Equal(t, 25, SharpePercentile(1.2))
	assert.Equal(t, 50, SharpePercentile(0.9))
	assert.Equal(t, 50, SharpePercentile(-1))
}

func TestExtractDrawdownSummary_FullPayload(t *testing.T) {
	response := map[string]interface{}{
		"drawdown_analysis": map[string]interface{}{
			"enhanced": map[string]interface{}{
				"summary": map[string]interface{}{
					"max_drawdown_pct":  -23.4,
					"max_drawdown_date": "2024-03-12",
					"recovery_days":     float64(18),
				},
			},
			"underwater_recovery": map[string]interface{}{
				"underwater_data": []interface{}{
					map[string]interface{}{"date": "2024-03-10", "drawdown": -5.0},
					map[string]interface{}{"date": "2024-03-11", "drawdown": -12.5},
				},
			},
		},
	}

	summary := ExtractDrawdownSummary(response)

	assert.Equal(t, -23.4, summary.MaxDrawdownPct)
	assert.Equal(t, "2024-03-12", summary.MaxDrawdownDate)
	assert.Equal(t, 18, summary.RecoveryDays)
	require.Len(t, summary.UnderwaterData, 2)
	assert.Equal(t, -12.5, summary.UnderwaterData[1].Drawdown)
}

func TestExtractDrawdownSummary_SparsePayloads(t *testing.T) {
	payloads := []map[string]interface{}{
		nil,
		{},
		{"drawdown_analysis": nil},
		{"drawdown_analysis": "not-a-map"},
		{"drawdown_analysis": map[string]interface{}{"enhanced": map[string]interface{}{}}},
		{"drawdown_analysis": map[string]interface{}{
			"underwater_recovery": map[string]interface{}{"underwater_data": "wrong-type"},
		}},
	}

	for i, payload := range payloads {
		var summary DrawdownSummaryData
		assert.NotPanics(t, func() { summary = ExtractDrawdownSummary(payload) }, "payload %d", i)
		assert.Equal(t, 0.0, summary.MaxDrawdownPct, "payload %d", i)
		assert.Equal(t, 0, summary.RecoveryDays, "payload %d", i)
		assert.NotEmpty(t, summary.MaxDrawdownDate, "payload %d", i)
		assert.NotNil(t, summary.UnderwaterData, "payload %d", i)
	}
}

func TestExtractDrawdownSummary_SkipsMalformedUnderwaterEntries(t *testing.T) {
	response := map[string]interface{}{
		"drawdown_analysis": map[string]interface{}{
			"underwater_recovery": map[string]interface{}{
				"underwater_data": []interface{}{
					"bogus",
					map[string]interface{}{"date": "2024-01-02", "drawdown": -3.0},
				},
			},
		},
	}

	summary := ExtractDrawdownSummary(response)

	require.Len(t, summary.UnderwaterData, 1)
	assert.Equal(t, "2024-01-02", summary.UnderwaterData[0].Date)
}
