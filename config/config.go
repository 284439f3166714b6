package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Local store
	DatabasePath string

	// Remote store API
	RemoteBaseURL string

	// Operator context
	TenantID    string
	CollectorID string
	RouteID     string

	// Sync processor settings
	SyncInterval       time.Duration
	SyncBatchSize      int
	SyncMaxRetries     int
	SyncInitialBackoff time.Duration
	SyncMaxBackoff     time.Duration

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabasePath:  os.Getenv("DATABASE_PATH"),
		RemoteBaseURL: os.Getenv("REMOTE_API_URL"),

		TenantID:    os.Getenv("TENANT_ID"),
		CollectorID: os.Getenv("COLLECTOR_ID"),
		RouteID:     os.Getenv("ROUTE_ID"),

		// Sync settings with defaults
		SyncInterval:       30 * time.Second,
		SyncBatchSize:      10,
		SyncMaxRetries:     5,
		SyncInitialBackoff: 1 * time.Second,
		SyncMaxBackoff:     60 * time.Second,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.DatabasePath == "" {
		config.DatabasePath = "credisync.db"
	}

	// Override defaults if environment variables are set
	if interval := os.Getenv("SYNC_INTERVAL_SECONDS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.SyncInterval = time.Duration(parsed) * time.Second
		}
	}
	if batch := os.Getenv("SYNC_BATCH_SIZE"); batch != "" {
		if parsed, err := strconv.Atoi(batch); err == nil && parsed > 0 {
			config.SyncBatchSize = parsed
		}
	}
	if retries := os.Getenv("SYNC_MAX_RETRIES"); retries != "" {
		if parsed, err := strconv.Atoi(retries); err == nil && parsed > 0 {
			config.SyncMaxRetries = parsed
		}
	}

	if config.TenantID == "" {
		return nil, fmt.Errorf("TENANT_ID is required")
	}
	if config.CollectorID == "" {
		return nil, fmt.Errorf("COLLECTOR_ID is required")
	}

	return config, nil
}
