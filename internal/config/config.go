// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/vantagefi/vantage/internal/analytics"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the portfolio database (always absolute)
	Port              int
	DevMode           bool
	LogLevel          string
	RecoveryThreshold float64 // Drawdown (percent) at or below which the portfolio reports underwater
	MonthlyBaseline   float64 // Fallback month-start portfolio value; 0 disables the fallback
	PriceFeedURL      string  // WebSocket URL of the BTC benchmark price feed
	Backup            BackupConfig
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // Empty for AWS S3 proper; set for R2/MinIO style endpoints
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetainCount     int    // Number of backups to keep in the bucket
	Schedule        string // Cron expression for the backup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("VANTAGE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("GO_PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		RecoveryThreshold: getEnvAsFloat("RECOVERY_THRESHOLD", analytics.DefaultRecoveryThreshold),
		MonthlyBaseline:   getEnvAsFloat("MONTHLY_BASELINE", 0),
		PriceFeedURL:      getEnv("PRICE_FEED_URL", ""),
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			Region:          getEnv("BACKUP_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			RetainCount:     getEnvAsInt("BACKUP_RETAIN_COUNT", 7),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"), // 3 AM daily
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.RecoveryThreshold > 0 {
		return fmt.Errorf("RECOVERY_THRESHOLD must be <= 0, got %f", c.RecoveryThreshold)
	}

	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
