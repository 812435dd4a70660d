// Package cache provides persistent caching for computed analytics payloads.
// Payloads are stored as msgpack blobs with expiration timestamps so expensive
// metric computations survive restarts without hitting the portfolio store.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache keys for analytics payloads.
const (
	KeyKeyMetrics       = "key_metrics"
	KeyPerformanceChart = "performance_chart"
	KeyDrawdownInsights = "drawdown_insights"
)

// TTL constants for cached analytics.
// Added to time.Now() when storing to calculate expires_at.
const (
	// Key metrics aggregate the full history, cheap to serve but costly to compute
	TTLKeyMetrics = 5 * time.Minute
	// Chart payloads change once per daily snapshot
	TTLChart = 15 * time.Minute
)

// Repository provides TTL cache operations backed by cache.db.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new cache repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Store saves a payload with expiration = now + ttl.
// Uses INSERT OR REPLACE to upsert.
func (r *Repository) Store(key string, payload interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO metric_cache (key, data, expires_at) VALUES (?, ?, ?)",
		key, data, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}

	return nil
}

// GetIfFresh decodes the cached payload into out only if expires_at > now.
// Returns (false, nil) when the key is missing or expired.
func (r *Repository) GetIfFresh(key string, out interface{}) (bool, error) {
	now := time.Now().Unix()

	var data []byte
	err := r.db.QueryRow(
		"SELECT data FROM metric_cache WHERE key = ? AND expires_at > ?",
		key, now,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache entry %s: %w", key, err)
	}

	return true, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM metric_cache WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every cached payload. Called after imports so stale
// metrics never outlive the data they were computed from.
func (r *Repository) Invalidate() error {
	if _, err := r.db.Exec("DELETE FROM metric_cache"); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// PruneExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) PruneExpired() (int64, error) {
	now := time.Now().Unix()

	result, err := r.db.Exec("DELETE FROM metric_cache WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired cache entries: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
