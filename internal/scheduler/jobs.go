package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vantagefi/vantage/internal/cache"
	"github.com/vantagefi/vantage/internal/clients/pricefeed"
)

// BenchmarkWriter persists a BTC close price for a date.
type BenchmarkWriter interface {
	SaveBenchmarkPrice(date string, priceUSD float64) error
}

// SnapshotJob persists the latest BTC tick as the benchmark close for today.
// Scheduled near midnight UTC so the stored price approximates the daily close.
type SnapshotJob struct {
	feed *pricefeed.Client
	repo BenchmarkWriter
	log  zerolog.Logger
}

// NewSnapshotJob creates a benchmark snapshot job.
func NewSnapshotJob(feed *pricefeed.Client, repo BenchmarkWriter, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		feed: feed,
		repo: repo,
		log:  log.With().Str("job", "benchmark_snapshot").Logger(),
	}
}

// Run stores the latest fresh tick. A stale or missing tick is skipped
// silently; the next run will catch up.
func (j *SnapshotJob) Run() error {
	tick, ok := j.feed.LastTick()
	if !ok {
		j.log.Warn().Msg("No fresh BTC tick available, skipping snapshot")
		return nil
	}

	date := time.Now().UTC().Format("2006-01-02")
	if err := j.repo.SaveBenchmarkPrice(date, tick.PriceUSD); err != nil {
		j.log.Error().Err(err).Msg("Failed to persist benchmark snapshot")
		return err
	}

	j.log.Info().
		Str("date", date).
		Float64("price_usd", tick.PriceUSD).
		Msg("Benchmark snapshot stored")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SnapshotJob) Name() string {
	return "benchmark_snapshot"
}

// CachePruneJob removes expired entries from the metric cache.
type CachePruneJob struct {
	repo *cache.Repository
	log  zerolog.Logger
}

// NewCachePruneJob creates a cache prune job.
func NewCachePruneJob(repo *cache.Repository, log zerolog.Logger) *CachePruneJob {
	return &CachePruneJob{
		repo: repo,
		log:  log.With().Str("job", "cache_prune").Logger(),
	}
}

// Run deletes all expired cache rows.
func (j *CachePruneJob) Run() error {
	deleted, err := j.repo.PruneExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune metric cache")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Pruned expired cache entries")
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}
