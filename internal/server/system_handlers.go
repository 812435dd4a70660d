package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vantagefi/vantage/internal/clients/pricefeed"
	"github.com/vantagefi/vantage/internal/database"
)

// SystemHandlers serves monitoring endpoints: host stats, database sizes,
// price feed status.
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	portfolioDB *database.DB
	cacheDB     *database.DB
	priceFeed   *pricefeed.Client
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	portfolioDB, cacheDB *database.DB,
	priceFeed *pricefeed.Client,
) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		portfolioDB: portfolioDB,
		cacheDB:     cacheDB,
		priceFeed:   priceFeed,
	}
}

// HandleSystemInfo handles GET /api/system/info
func (h *SystemHandlers) HandleSystemInfo(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.getSystemStats()

	feed := map[string]interface{}{
		"connected": false,
	}
	if h.priceFeed != nil {
		feed["connected"] = h.priceFeed.IsConnected()
		if tick, ok := h.priceFeed.LastTick(); ok {
			feed["btc_price_usd"] = tick.PriceUSD
			feed["observed_at"] = tick.ObservedAt.Format(time.RFC3339)
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_percent":    cpuPct,
			"memory_percent": memPct,
			"disk_free_mb":   h.getDiskFreeMB(),
			"price_feed":     feed,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	databases := []*database.DB{h.portfolioDB, h.cacheDB}
	stats := make([]map[string]interface{}, 0, len(databases))

	for _, db := range databases {
		if db == nil {
			continue
		}
		entry := map[string]interface{}{
			"name": db.Name(),
			"path": db.Path(),
		}
		if info, err := os.Stat(db.Path()); err == nil {
			entry["size_mb"] = float64(info.Size()) / 1024 / 1024
		}
		stats = append(stats, entry)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": stats,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// getDiskFreeMB returns free space on the data directory's filesystem.
func (h *SystemHandlers) getDiskFreeMB() float64 {
	usage, err := disk.Usage(filepath.Clean(h.dataDir))
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
		return 0
	}
	return float64(usage.Free) / 1024 / 1024
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
