package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vantagefi/vantage/internal/analytics"
)

type fakeStore struct {
	values    []analytics.PortfolioValuePoint
	yields    []analytics.YieldEntry
	rows      []analytics.RawAllocationRow
	snapshots []analytics.BenchmarkSnapshot
}

func (f *fakeStore) GetDailyValues() ([]analytics.PortfolioValuePoint, error) { return f.values, nil }
func (f *fakeStore) GetYieldEntries() ([]analytics.YieldEntry, error)         { return f.yields, nil }
func (f *fakeStore) GetAllocationRows() ([]analytics.RawAllocationRow, error) { return f.rows, nil }
func (f *fakeStore) GetBenchmarkPrices() ([]analytics.BenchmarkSnapshot, error) {
	return f.snapshots, nil
}

// fakeCache mirrors the msgpack round-trip of the real cache repository.
type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Store(key string, payload interface{}, _ time.Duration) error {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return err
	}
	f.entries[key] = data
	return nil
}

func (f *fakeCache) GetIfFresh(key string, out interface{}) (bool, error) {
	data, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, msgpack.Unmarshal(data, out)
}

func setupRouter(store *fakeStore, metricCache MetricCache) *chi.Mux {
	h := NewHandler(store, metricCache, Options{}, zerolog.Nop())
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]interface{}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func testValues() []analytics.PortfolioValuePoint {
	return []analytics.PortfolioValuePoint{
		{Date: "2024-03-01", Value: 10000},
		{Date: "2024-03-02", Value: 9000},
		{Date: "2024-03-03", Value: 10000},
		{Date: "2024-03-04", Value: 10500},
	}
}

func TestHandleGetDrawdown(t *testing.T) {
	router := setupRouter(&fakeStore{values: testValues()}, newFakeCache())

	rec, body := get(t, router, "/api/analytics/drawdown")
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	points, ok := data["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, points, 4)

	summary, ok := data["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, -10, summary["max_drawdown"], 1e-9)

	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, "2024-03-01", metadata["start_date"])
	assert.Equal(t, "2024-03-04", metadata["end_date"])
}

func TestHandleGetPerformanceChart(t *testing.T) {
	store := &fakeStore{
		values: testValues(),
		snapshots: []analytics.BenchmarkSnapshot{
			{Date: "2024-03-01", PriceUSD: 60000},
			{Date: "2024-03-04", PriceUSD: 66000},
		},
	}
	router := setupRouter(store, newFakeCache())

	rec, body := get(t, router, "/api/analytics/performance-chart")
	require.Equal(t, http.StatusOK, rec.Code)

	points, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, points, 4)
}

func TestHandleGetKeyMetricsCaching(t *testing.T) {
	router := setupRouter(&fakeStore{values: testValues()}, newFakeCache())

	rec, body := get(t, router, "/api/analytics/key-metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	metadata := body["metadata"].(map[string]interface{})
	assert.Equal(t, false, metadata["cached"])

	rec, body = get(t, router, "/api/analytics/key-metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	metadata = body["metadata"].(map[string]interface{})
	assert.Equal(t, true, metadata["cached"])

	data := body["data"].(map[string]interface{})
	twr := data["time_weighted_return"].(map[string]interface{})
	assert.Equal(t, "+5.00%", twr["value"])
}

func TestHandleGetMonthlyPnL(t *testing.T) {
	store := &fakeStore{
		values: testValues(),
		yields: []analytics.YieldEntry{
			{Date: "2024-03-10", YieldReturnUSD: 150},
		},
	}
	router := setupRouter(store, newFakeCache())

	rec, body := get(t, router, "/api/analytics/monthly-pnl")
	require.Equal(t, http.StatusOK, rec.Code)

	months, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, months, 1)

	month := months[0].(map[string]interface{})
	assert.Equal(t, "Mar", month["month"])
	assert.InDelta(t, 1.5, month["value"], 1e-9)
}

func TestHandleGetAllocation(t *testing.T) {
	store := &fakeStore{
		rows: []analytics.RawAllocationRow{
			{Date: "2024-03-01", Category: "bitcoin", Percentage: 62.5, CategoryValue: 5000},
			{Date: "2024-03-01", Category: "usdc", Percentage: 37.5, CategoryValue: 3000},
		},
	}
	router := setupRouter(store, newFakeCache())

	rec, body := get(t, router, "/api/analytics/allocation")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	history, ok := data["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 1)

	current := data["current"].(map[string]interface{})
	assert.InDelta(t, 62.5, current["btc"], 1e-6)
}

func TestHandleGetRolling(t *testing.T) {
	router := setupRouter(&fakeStore{values: testValues()}, newFakeCache())

	rec, body := get(t, router, "/api/analytics/rolling?window=3")
	require.Equal(t, http.StatusOK, rec.Code)

	metadata := body["metadata"].(map[string]interface{})
	assert.InDelta(t, 3, metadata["window"], 1e-9)

	data := body["data"].(map[string]interface{})
	_, hasSharpe := data["sharpe"]
	_, hasVol := data["volatility"]
	assert.True(t, hasSharpe)
	assert.True(t, hasVol)
}

func TestHandleGetRollingRejectsBadWindow(t *testing.T) {
	router := setupRouter(&fakeStore{values: testValues()}, newFakeCache())

	rec, _ := get(t, router, "/api/analytics/rolling?window=1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get(t, router, "/api/analytics/rolling?window=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetDrawdownEmptyHistory(t *testing.T) {
	router := setupRouter(&fakeStore{}, newFakeCache())

	rec, body := get(t, router, "/api/analytics/drawdown")
	require.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	assert.InDelta(t, 0, summary["max_drawdown"], 1e-9)
}
