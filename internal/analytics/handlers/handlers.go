// Package handlers provides HTTP handlers for portfolio analytics operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagefi/vantage/internal/analytics"
	"github.com/vantagefi/vantage/internal/cache"
)

// PortfolioStore supplies the raw series the analytics are computed from.
type PortfolioStore interface {
	GetDailyValues() ([]analytics.PortfolioValuePoint, error)
	GetYieldEntries() ([]analytics.YieldEntry, error)
	GetAllocationRows() ([]analytics.RawAllocationRow, error)
	GetBenchmarkPrices() ([]analytics.BenchmarkSnapshot, error)
}

// MetricCache caches computed payloads between requests.
type MetricCache interface {
	Store(key string, payload interface{}, ttl time.Duration) error
	GetIfFresh(key string, out interface{}) (bool, error)
}

// Options tune the analytics computations.
type Options struct {
	// RecoveryThreshold is the drawdown level (percent, <= 0) at or above
	// which the portfolio counts as recovered.
	RecoveryThreshold float64
	// MonthlyBaseline substitutes for a missing month-start portfolio value.
	// Zero disables the fallback.
	MonthlyBaseline float64
}

// Handler handles analytics HTTP requests.
type Handler struct {
	store PortfolioStore
	cache MetricCache
	opts  Options
	log   zerolog.Logger
}

// NewHandler creates a new analytics handler.
func NewHandler(store PortfolioStore, metricCache MetricCache, opts Options, log zerolog.Logger) *Handler {
	if opts.RecoveryThreshold > 0 {
		opts.RecoveryThreshold = analytics.DefaultRecoveryThreshold
	}
	return &Handler{
		store: store,
		cache: metricCache,
		opts:  opts,
		log:   log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetDrawdown handles GET /api/analytics/drawdown
func (h *Handler) HandleGetDrawdown(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.GetDailyValues()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily values")
		http.Error(w, "Failed to get portfolio history", http.StatusInternalServerError)
		return
	}

	insights := analytics.BuildDrawdownRecoveryInsightsWithThreshold(values, h.opts.RecoveryThreshold)
	startDate, endDate := analytics.BuildDateRange(values)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": insights,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"start_date": startDate,
			"end_date":   endDate,
			"points":     len(insights.Data),
		},
	})
}

// HandleGetPerformanceChart handles GET /api/analytics/performance-chart
func (h *Handler) HandleGetPerformanceChart(w http.ResponseWriter, r *http.Request) {
	values, err := h.store.GetDailyValues()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily values")
		http.Error(w, "Failed to get portfolio history", http.StatusInternalServerError)
		return
	}

	snapshots, err := h.store.GetBenchmarkPrices()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get benchmark prices")
		http.Error(w, "Failed to get benchmark prices", http.StatusInternalServerError)
		return
	}

	chart := analytics.BuildPerformanceChart(values, snapshots)
	startDate, endDate := analytics.BuildDateRange(values)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": chart,
		"metadata": map[string]interface{}{
			"timestamp":  time.Now().Format(time.RFC3339),
			"start_date": startDate,
			"end_date":   endDate,
			"points":     len(chart),
		},
	})
}

// HandleGetKeyMetrics handles GET /api/analytics/key-metrics
func (h *Handler) HandleGetKeyMetrics(w http.ResponseWriter, r *http.Request) {
	var metrics analytics.KeyMetrics
	if found, err := h.cache.GetIfFresh(cache.KeyKeyMetrics, &metrics); err != nil {
		h.log.Warn().Err(err).Msg("Metric cache read failed")
	} else if found {
		h.writeJSON(w, http.StatusOK, keyMetricsResponse(metrics, true))
		return
	}

	values, err := h.store.GetDailyValues()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily values")
		http.Error(w, "Failed to get portfolio history", http.StatusInternalServerError)
		return
	}

	snapshots, err := h.store.GetBenchmarkPrices()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get benchmark prices")
		http.Error(w, "Failed to get benchmark prices", http.StatusInternalServerError)
		return
	}

	sharpe := analytics.RollingSharpeSeries(values, analytics.DefaultRollingWindow)
	volatility := analytics.RollingVolatilitySeries(values, analytics.DefaultRollingWindow)
	metrics = analytics.CalculateKeyMetrics(values, sharpe, volatility, snapshots)

	if err := h.cache.Store(cache.KeyKeyMetrics, metrics, cache.TTLKeyMetrics); err != nil {
		h.log.Warn().Err(err).Msg("Metric cache write failed")
	}

	h.writeJSON(w, http.StatusOK, keyMetricsResponse(metrics, false))
}

func keyMetricsResponse(metrics analytics.KeyMetrics, cached bool) map[string]interface{} {
	return map[string]interface{}{
		"data": metrics,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"cached":    cached,
		},
	}
}

// HandleGetMonthlyPnL handles GET /api/analytics/monthly-pnl
func (h *Handler) HandleGetMonthlyPnL(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.GetYieldEntries()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get yield entries")
		http.Error(w, "Failed to get yield entries", http.StatusInternalServerError)
		return
	}

	values, err := h.store.GetDailyValues()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily values")
		http.Error(w, "Failed to get portfolio history", http.StatusInternalServerError)
		return
	}

	months := analytics.AggregateMonthlyPnL(entries, values, analytics.MonthlyOptions{
		FallbackBaseline: h.opts.MonthlyBaseline,
	})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": months,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"months":    len(months),
		},
	})
}

// HandleGetAllocation handles GET /api/analytics/allocation
func (h *Handler) HandleGetAllocation(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.GetAllocationRows()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get allocation rows")
		http.Error(w, "Failed to get allocation rows", http.StatusInternalServerError)
		return
	}

	history := analytics.BuildAllocationHistory(rows)
	view := analytics.BuildAllocationView(history)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": view,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"points":    len(view.History),
		},
	})
}

// HandleGetRolling handles GET /api/analytics/rolling?window=30
func (h *Handler) HandleGetRolling(w http.ResponseWriter, r *http.Request) {
	window := analytics.DefaultRollingWindow
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2 || parsed > 365 {
			http.Error(w, "window must be an integer between 2 and 365", http.StatusBadRequest)
			return
		}
		window = parsed
	}

	values, err := h.store.GetDailyValues()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get daily values")
		http.Error(w, "Failed to get portfolio history", http.StatusInternalServerError)
		return
	}

	sharpe := analytics.ClassifySharpeSeries(analytics.RollingSharpeSeries(values, window))
	volatility := analytics.ClassifyVolatilitySeries(analytics.RollingVolatilitySeries(values, window))

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"sharpe":     sharpe,
			"volatility": volatility,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"window":    window,
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
