// Package handlers provides HTTP handlers for portfolio data imports.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagefi/vantage/internal/portfolio"
)

// maxImportBodyBytes caps one import request at 16MB.
const maxImportBodyBytes = 16 << 20

// Importer persists one import batch.
type Importer interface {
	Import(req portfolio.ImportRequest) (*portfolio.ImportBatch, error)
	GetImportBatches(limit int) ([]portfolio.ImportBatch, error)
}

// CacheInvalidator drops cached analytics after the underlying data changes.
type CacheInvalidator interface {
	Invalidate() error
}

// Handler handles portfolio import HTTP requests.
type Handler struct {
	repo  Importer
	cache CacheInvalidator
	log   zerolog.Logger
}

// NewHandler creates a new portfolio handler.
func NewHandler(repo Importer, cache CacheInvalidator, log zerolog.Logger) *Handler {
	return &Handler{
		repo:  repo,
		cache: cache,
		log:   log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleImport handles POST /api/portfolio/import
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var req portfolio.ImportRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Invalid import payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Source == "" {
		req.Source = "api"
	}

	total := len(req.DailyValues) + len(req.YieldEntries) + len(req.AllocationRows) + len(req.BenchmarkPrices)
	if total == 0 {
		http.Error(w, "Import payload contains no rows", http.StatusBadRequest)
		return
	}

	batch, err := h.repo.Import(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Import failed")
		http.Error(w, "Import failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	// Cached analytics were computed from pre-import data
	if err := h.cache.Invalidate(); err != nil {
		h.log.Warn().Err(err).Msg("Failed to invalidate metric cache after import")
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": batch,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListImports handles GET /api/portfolio/imports
func (h *Handler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	batches, err := h.repo.GetImportBatches(20)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list import batches")
		http.Error(w, "Failed to list imports", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": batches,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
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
