// Package portfolio persists imported portfolio history: daily values,
// realized yield entries, allocation rows, and benchmark prices.
package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vantagefi/vantage/internal/analytics"
)

// Repository handles persistence of portfolio history in portfolio.db.
// All dates are stored as YYYY-MM-DD strings; imports are grouped under a
// batch ID so a bad import can be traced back to its source.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// ImportBatch describes a single import of portfolio data.
type ImportBatch struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	RowCount   int       `json:"row_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// ImportRequest carries the rows of one import. Any of the slices may be empty.
type ImportRequest struct {
	Source          string                        `json:"source"`
	DailyValues     []analytics.PortfolioValuePoint `json:"daily_values"`
	YieldEntries    []analytics.YieldEntry          `json:"yield_entries"`
	AllocationRows  []analytics.RawAllocationRow    `json:"allocation_rows"`
	BenchmarkPrices []analytics.BenchmarkSnapshot   `json:"benchmark_prices"`
}

// Import writes one batch of portfolio data inside a single transaction.
// Daily values and benchmark prices upsert by date so re-imports are idempotent.
func (r *Repository) Import(req ImportRequest) (*ImportBatch, error) {
	batch := &ImportBatch{
		ID:         uuid.NewString(),
		Source:     req.Source,
		ImportedAt: time.Now().UTC(),
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, dv := range req.DailyValues {
		key := analytics.DateKey(dv.Date)
		if key == "" {
			return nil, fmt.Errorf("daily value has invalid date %q", dv.Date)
		}
		if _, err := tx.Exec(`
			INSERT INTO daily_values (date, value, pnl_percentage, import_batch)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				value = excluded.value,
				pnl_percentage = excluded.pnl_percentage,
				import_batch = excluded.import_batch
		`, key, dv.Value, dv.PnLPercentage, batch.ID); err != nil {
			return nil, fmt.Errorf("failed to insert daily value for %s: %w", key, err)
		}
		batch.RowCount++
	}

	for _, ye := range req.YieldEntries {
		key := analytics.DateKey(ye.Date)
		if key == "" {
			return nil, fmt.Errorf("yield entry has invalid date %q", ye.Date)
		}
		if _, err := tx.Exec(`
			INSERT INTO yield_entries (date, yield_return_usd, import_batch)
			VALUES (?, ?, ?)
		`, key, ye.YieldReturnUSD, batch.ID); err != nil {
			return nil, fmt.Errorf("failed to insert yield entry for %s: %w", key, err)
		}
		batch.RowCount++
	}

	for _, ar := range req.AllocationRows {
		key := analytics.DateKey(ar.Date)
		if key == "" {
			return nil, fmt.Errorf("allocation row has invalid date %q", ar.Date)
		}
		if _, err := tx.Exec(`
			INSERT INTO allocation_rows (date, protocol, category, percentage, category_value, import_batch)
			VALUES (?, ?, ?, ?, ?, ?)
		`, key, ar.Protocol, ar.Category, ar.Percentage, ar.CategoryValue, batch.ID); err != nil {
			return nil, fmt.Errorf("failed to insert allocation row for %s: %w", key, err)
		}
		batch.RowCount++
	}

	for _, bp := range req.BenchmarkPrices {
		key := analytics.DateKey(bp.Date)
		if key == "" {
			return nil, fmt.Errorf("benchmark price has invalid date %q", bp.Date)
		}
		if err := upsertBenchmarkPrice(tx, key, bp.PriceUSD); err != nil {
			return nil, err
		}
		batch.RowCount++
	}

	if _, err := tx.Exec(`
		INSERT INTO import_batches (id, source, row_count, imported_at)
		VALUES (?, ?, ?, ?)
	`, batch.ID, batch.Source, batch.RowCount, batch.ImportedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("failed to record import batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	r.log.Info().
		Str("batch_id", batch.ID).
		Str("source", batch.Source).
		Int("rows", batch.RowCount).
		Msg("Portfolio import committed")

	return batch, nil
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func upsertBenchmarkPrice(ex execer, date string, priceUSD float64) error {
	if _, err := ex.Exec(`
		INSERT INTO benchmark_prices (date, price_usd, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(date) DO UPDATE SET
			price_usd = excluded.price_usd,
			updated_at = excluded.updated_at
	`, date, priceUSD); err != nil {
		return fmt.Errorf("failed to upsert benchmark price for %s: %w", date, err)
	}
	return nil
}

// SaveBenchmarkPrice upserts a single BTC close price, used by the price feed
// snapshot job outside of bulk imports.
func (r *Repository) SaveBenchmarkPrice(date string, priceUSD float64) error {
	key := analytics.DateKey(date)
	if key == "" {
		return fmt.Errorf("benchmark price has invalid date %q", date)
	}
	return upsertBenchmarkPrice(r.db, key, priceUSD)
}

// GetDailyValues returns the full portfolio value history in ascending date order.
func (r *Repository) GetDailyValues() ([]analytics.PortfolioValuePoint, error) {
	rows, err := r.db.Query(`
		SELECT date, value, pnl_percentage
		FROM daily_values
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily values: %w", err)
	}
	defer rows.Close()

	var points []analytics.PortfolioValuePoint
	for rows.Next() {
		var p analytics.PortfolioValuePoint
		var pnl sql.NullFloat64
		if err := rows.Scan(&p.Date, &p.Value, &pnl); err != nil {
			return nil, fmt.Errorf("failed to scan daily value: %w", err)
		}
		if pnl.Valid {
			v := pnl.Float64
			p.PnLPercentage = &v
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetYieldEntries returns all realized yield entries in ascending date order.
func (r *Repository) GetYieldEntries() ([]analytics.YieldEntry, error) {
	rows, err := r.db.Query(`
		SELECT date, yield_return_usd
		FROM yield_entries
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query yield entries: %w", err)
	}
	defer rows.Close()

	var entries []analytics.YieldEntry
	for rows.Next() {
		var e analytics.YieldEntry
		if err := rows.Scan(&e.Date, &e.YieldReturnUSD); err != nil {
			return nil, fmt.Errorf("failed to scan yield entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetAllocationRows returns raw allocation rows in ascending date order.
func (r *Repository) GetAllocationRows() ([]analytics.RawAllocationRow, error) {
	rows, err := r.db.Query(`
		SELECT date, COALESCE(protocol, ''), category, percentage, category_value
		FROM allocation_rows
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation rows: %w", err)
	}
	defer rows.Close()

	var out []analytics.RawAllocationRow
	for rows.Next() {
		var row analytics.RawAllocationRow
		if err := rows.Scan(&row.Date, &row.Protocol, &row.Category, &row.Percentage, &row.CategoryValue); err != nil {
			return nil, fmt.Errorf("failed to scan allocation row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetBenchmarkPrices returns all BTC close prices in ascending date order.
func (r *Repository) GetBenchmarkPrices() ([]analytics.BenchmarkSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT date, price_usd
		FROM benchmark_prices
		ORDER BY date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark prices: %w", err)
	}
	defer rows.Close()

	var snaps []analytics.BenchmarkSnapshot
	for rows.Next() {
		var s analytics.BenchmarkSnapshot
		if err := rows.Scan(&s.Date, &s.PriceUSD); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark price: %w", err)
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// GetImportBatches returns import batches, most recent first.
func (r *Repository) GetImportBatches(limit int) ([]ImportBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT id, source, row_count, imported_at
		FROM import_batches
		ORDER BY imported_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer rows.Close()

	var batches []ImportBatch
	for rows.Next() {
		var b ImportBatch
		var importedAt string
		if err := rows.Scan(&b.ID, &b.Source, &b.RowCount, &importedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, importedAt); err == nil {
			b.ImportedAt = t
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
