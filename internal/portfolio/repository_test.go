package portfolio

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vantagefi/vantage/internal/analytics"
)

// setupTestDB creates an in-memory SQLite database with the portfolio schema.
func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_values (
			date TEXT PRIMARY KEY,
			value REAL NOT NULL,
			pnl_percentage REAL,
			import_batch TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
		CREATE TABLE yield_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			yield_return_usd REAL NOT NULL,
			import_batch TEXT
		);
		CREATE TABLE allocation_rows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			protocol TEXT,
			category TEXT NOT NULL,
			percentage REAL NOT NULL DEFAULT 0,
			category_value REAL NOT NULL,
			import_batch TEXT
		);
		CREATE TABLE benchmark_prices (
			date TEXT PRIMARY KEY,
			price_usd REAL NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
		CREATE TABLE import_batches (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			imported_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
	`)
	require.NoError(t, err)

	return db
}

func floatPtr(v float64) *float64 { return &v }

func TestImportAndReadBack(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	batch, err := repo.Import(ImportRequest{
		Source: "csv",
		DailyValues: []analytics.PortfolioValuePoint{
			{Date: "2024-03-01", Value: 10000, PnLPercentage: floatPtr(1.2)},
			{Date: "2024-03-02T00:00:00Z", Value: 10100},
		},
		YieldEntries: []analytics.YieldEntry{
			{Date: "2024-03-01", YieldReturnUSD: 12.5},
		},
		AllocationRows: []analytics.RawAllocationRow{
			{Date: "2024-03-01", Protocol: "aave", Category: "stablecoin", Percentage: 40, CategoryValue: 4000},
		},
		BenchmarkPrices: []analytics.BenchmarkSnapshot{
			{Date: "2024-03-01", PriceUSD: 62000},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 5, batch.RowCount)

	values, err := repo.GetDailyValues()
	require.NoError(t, err)
	require.Len(t, values, 2)
	// RFC3339 dates are normalized to date keys on write
	assert.Equal(t, "2024-03-02", values[1].Date)
	require.NotNil(t, values[0].PnLPercentage)
	assert.InDelta(t, 1.2, *values[0].PnLPercentage, 1e-9)
	assert.Nil(t, values[1].PnLPercentage)

	yields, err := repo.GetYieldEntries()
	require.NoError(t, err)
	require.Len(t, yields, 1)
	assert.InDelta(t, 12.5, yields[0].YieldReturnUSD, 1e-9)

	allocs, err := repo.GetAllocationRows()
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, "aave", allocs[0].Protocol)
	assert.InDelta(t, 4000, allocs[0].CategoryValue, 1e-9)

	prices, err := repo.GetBenchmarkPrices()
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.InDelta(t, 62000, prices[0].PriceUSD, 1e-9)

	batches, err := repo.GetImportBatches(10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "csv", batches[0].Source)
}

func TestImportUpsertsByDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Import(ImportRequest{
		Source:      "csv",
		DailyValues: []analytics.PortfolioValuePoint{{Date: "2024-03-01", Value: 10000}},
	})
	require.NoError(t, err)

	// Re-importing the same date replaces the value instead of duplicating
	_, err = repo.Import(ImportRequest{
		Source:      "csv",
		DailyValues: []analytics.PortfolioValuePoint{{Date: "2024-03-01", Value: 10500}},
	})
	require.NoError(t, err)

	values, err := repo.GetDailyValues()
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.InDelta(t, 10500, values[0].Value, 1e-9)
}

func TestImportRejectsInvalidDate(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Import(ImportRequest{
		Source:      "csv",
		DailyValues: []analytics.PortfolioValuePoint{{Date: "not-a-date", Value: 1}},
	})
	require.Error(t, err)

	// The failed import must not leave partial rows behind
	values, err := repo.GetDailyValues()
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestSaveBenchmarkPrice(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	require.NoError(t, repo.SaveBenchmarkPrice("2024-03-05", 61000))
	require.NoError(t, repo.SaveBenchmarkPrice("2024-03-05", 61500))

	prices, err := repo.GetBenchmarkPrices()
	require.NoError(t, err)
	require.Len(t, prices, 1)
	assert.InDelta(t, 61500, prices[0].PriceUSD, 1e-9)
}
