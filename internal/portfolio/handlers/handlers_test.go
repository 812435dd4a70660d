package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagefi/vantage/internal/portfolio"
)

type fakeRepo struct {
	lastImport *portfolio.ImportRequest
	importErr  error
	batches    []portfolio.ImportBatch
}

func (f *fakeRepo) Import(req portfolio.ImportRequest) (*portfolio.ImportBatch, error) {
	if f.importErr != nil {
		return nil, f.importErr
	}
	f.lastImport = &req
	return &portfolio.ImportBatch{
		ID:         "batch-1",
		Source:     req.Source,
		RowCount:   len(req.DailyValues),
		ImportedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeRepo) GetImportBatches(limit int) ([]portfolio.ImportBatch, error) {
	return f.batches, nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate() error {
	f.calls++
	return nil
}

func setupRouter(repo *fakeRepo, inv *fakeInvalidator) *chi.Mux {
	h := NewHandler(repo, inv, zerolog.Nop())
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	return r
}

func TestHandleImport(t *testing.T) {
	repo := &fakeRepo{}
	inv := &fakeInvalidator{}
	router := setupRouter(repo, inv)

	body := `{
		"source": "csv",
		"daily_values": [
			{"date": "2024-03-01", "value": 10000},
			{"date": "2024-03-02", "value": 10100}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.lastImport)
	assert.Equal(t, "csv", repo.lastImport.Source)
	assert.Len(t, repo.lastImport.DailyValues, 2)
	assert.Equal(t, 1, inv.calls)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "batch-1", data["id"])
}

func TestHandleImportDefaultsSource(t *testing.T) {
	repo := &fakeRepo{}
	router := setupRouter(repo, &fakeInvalidator{})

	body := `{"daily_values": [{"date": "2024-03-01", "value": 1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/import", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "api", repo.lastImport.Source)
}

func TestHandleImportRejectsEmptyPayload(t *testing.T) {
	repo := &fakeRepo{}
	inv := &fakeInvalidator{}
	router := setupRouter(repo, inv)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/import", strings.NewReader(`{"source":"csv"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, inv.calls)
}

func TestHandleImportRejectsUnknownFields(t *testing.T) {
	router := setupRouter(&fakeRepo{}, &fakeInvalidator{})

	req := httptest.NewRequest(http.MethodPost, "/api/portfolio/import", strings.NewReader(`{"bogus": true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleListImports(t *testing.T) {
	repo := &fakeRepo{
		batches: []portfolio.ImportBatch{
			{ID: "b1", Source: "csv", RowCount: 3},
		},
	}
	router := setupRouter(repo, &fakeInvalidator{})

	req := httptest.NewRequest(http.MethodGet, "/api/portfolio/imports", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	batches := resp["data"].([]interface{})
	require.Len(t, batches, 1)
}
