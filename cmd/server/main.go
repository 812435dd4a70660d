// Vantage is a DeFi portfolio analytics service. It ingests daily portfolio
// history, tracks a live BTC benchmark, and serves chart-ready analytics
// over HTTP.
//
// Startup order:
//  1. Load configuration from environment (.env supported)
//  2. Open and migrate portfolio.db and cache.db
//  3. Start the BTC price feed WebSocket client
//  4. Register scheduled jobs (benchmark snapshot, cache prune, backup)
//  5. Start the HTTP server
//  6. Wait for SIGINT/SIGTERM and shut everything down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vantagefi/vantage/internal/cache"
	"github.com/vantagefi/vantage/internal/clients/pricefeed"
	"github.com/vantagefi/vantage/internal/config"
	"github.com/vantagefi/vantage/internal/database"
	"github.com/vantagefi/vantage/internal/portfolio"
	"github.com/vantagefi/vantage/internal/reliability"
	"github.com/vantagefi/vantage/internal/scheduler"
	"github.com/vantagefi/vantage/internal/server"
	"github.com/vantagefi/vantage/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Vantage")

	// Databases
	portfolioDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "portfolio.db"),
		Name: "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	// Repositories
	portfolioRepo := portfolio.NewRepository(portfolioDB.Conn(), log)
	cacheRepo := cache.NewRepository(cacheDB.Conn())

	// BTC price feed
	var feed *pricefeed.Client
	if cfg.PriceFeedURL != "" {
		feed = pricefeed.New(cfg.PriceFeedURL, log)
		if err := feed.Start(); err != nil {
			log.Warn().Err(err).Msg("Price feed unavailable at startup")
		}
	} else {
		log.Warn().Msg("PRICE_FEED_URL not set, benchmark snapshots disabled")
	}

	// Scheduled jobs
	sched := scheduler.New(log)

	if feed != nil {
		// Just before midnight UTC so the stored price approximates the daily close
		if err := sched.AddJob("0 59 23 * * *", scheduler.NewSnapshotJob(feed, portfolioRepo, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register snapshot job")
		}
	}

	if err := sched.AddJob("0 0 * * * *", scheduler.NewCachePruneJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache prune job")
	}

	if cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:          cfg.Backup.Bucket,
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup client")
		}

		backupService := reliability.NewBackupService(
			s3Client,
			[]*database.DB{portfolioDB},
			cfg.DataDir,
			log,
		)
		backupJob := reliability.NewBackupJob(backupService, cfg.Backup.RetainCount, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()

	// HTTP server
	srv := server.New(server.Config{
		Log:           log,
		Config:        cfg,
		PortfolioDB:   portfolioDB,
		CacheDB:       cacheDB,
		PortfolioRepo: portfolioRepo,
		CacheRepo:     cacheRepo,
		PriceFeed:     feed,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	if feed != nil {
		if err := feed.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping price feed")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
