// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Directory holding procurement.db (always absolute)
	LogLevel      string
	LogPretty     bool
	Port          int
	DevMode       bool
	SessionSecret string // HMAC key for bearer tokens
	SessionIssuer string
	// MaintenanceSchedule is the cron spec for WAL checkpoint checks
	MaintenanceSchedule string
	Backup              *BackupConfig
}

// BackupConfig holds off-site backup settings (any S3-compatible store)
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Endpoint        string // Empty means AWS S3; set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // cron spec
	Retention       int    // number of archives kept
	Prefix          string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RFQ_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("GO_PORT", 8001),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogPretty:           getEnvAsBool("LOG_PRETTY", true),
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionIssuer:       getEnv("SESSION_ISSUER", "rfqdesk"),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "@every 1h"),
		Backup:              loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	// Dev mode falls back to a fixed secret so local tokens keep working across restarts
	if c.SessionSecret == "" {
		if !c.DevMode {
			return fmt.Errorf("SESSION_SECRET is required outside dev mode")
		}
		c.SessionSecret = "dev-only-session-secret"
	}

	if c.Backup != nil && c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if c.Backup.Retention < 1 {
			return fmt.Errorf("BACKUP_RETENTION must be at least 1")
		}
	}

	return nil
}

// DatabasePath returns the location of the procurement database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "procurement.db")
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

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 3 * * *"),
		Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
		Prefix:          strings.Trim(getEnv("BACKUP_PREFIX", "rfqdesk"), "/"),
	}
}
