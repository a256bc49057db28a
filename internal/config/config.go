// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Backend names.
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Store selects the ledger backend: memory or sql.
	Store string `koanf:"store"`
	// DatabaseDriver is sqlite3 or pgx when Store is sql.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseDSN    string `koanf:"database_dsn"`

	// RecordsStore selects the player records backend: memory or redis.
	RecordsStore  string `koanf:"records_store"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// QueueSize bounds the completed-result queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of record workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets the size of the result deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /api/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ScoreMin and ScoreMax bound accepted entry amounts. Unset means unbounded.
	ScoreMin *int `koanf:"score_min"`
	ScoreMax *int `koanf:"score_max"`
	// MaxRound is the highest round number a score may target.
	MaxRound int `koanf:"max_round"`
	// OneEntryPerRound rejects a second forward entry for a player in a round.
	OneEntryPerRound bool `koanf:"one_entry_per_round"`

	// CatalogPath is an optional YAML file with extra games, rules and resources.
	CatalogPath string `koanf:"catalog_path"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		ShutdownTimeout:     10 * time.Second,
		CORSAllowedOrigins:  []string{"*"},
		Store:               StoreMemory,
		DatabaseDriver:      "sqlite3",
		DatabaseDSN:         "tally.db",
		RecordsStore:        StoreMemory,
		RedisAddr:           "localhost:6379",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		MaxRound:            1000,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.Store != StoreMemory && c.Store != StoreSQL:
		return fmt.Errorf("%w: store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreSQL && c.DatabaseDriver != "sqlite3" && c.DatabaseDriver != "pgx":
		return fmt.Errorf("%w: database_driver %q", ErrInvalidConfig, c.DatabaseDriver)
	case c.Store == StoreSQL && c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.RecordsStore != StoreMemory && c.RecordsStore != StoreRedis:
		return fmt.Errorf("%w: records_store %q", ErrInvalidConfig, c.RecordsStore)
	case c.RecordsStore == StoreRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.MaxRound < 1:
		return fmt.Errorf("%w: max_round must be positive", ErrInvalidConfig)
	case c.ScoreMin != nil && c.ScoreMax != nil && *c.ScoreMin > *c.ScoreMax:
		return fmt.Errorf("%w: score_min %d exceeds score_max %d", ErrInvalidConfig, *c.ScoreMin, *c.ScoreMax)
	}
	return nil
}
