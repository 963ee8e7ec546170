// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and the environment over those defaults.
package config

import (
	"context"
	"runtime"
	"time"
)

// Storage and cache backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// StorageBackend selects where the catalog lives.
	StorageBackend string `koanf:"storage_backend" validate:"oneof=memory postgres"`

	// SeedPath is the YAML catalog loaded by the memory backend. Empty
	// starts with an empty catalog.
	SeedPath string `koanf:"seed_path"`

	// PostgresDSN is required by the postgres backend.
	PostgresDSN          string `koanf:"postgres_dsn" validate:"required_if=StorageBackend postgres"`
	PostgresMaxConns     int32  `koanf:"postgres_max_conns" validate:"gte=0"`
	PostgresEnsureSchema bool   `koanf:"postgres_ensure_schema"`

	// CacheBackend selects where generated proposals are cached.
	CacheBackend    string `koanf:"cache_backend" validate:"oneof=memory redis"`
	CacheSize       int    `koanf:"cache_size" validate:"gte=0"`
	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" validate:"gte=0"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=CacheBackend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	// WorkerCount sets the number of proposal refresh workers.
	WorkerCount int `koanf:"worker_count" validate:"gte=0"`

	// QueueSize bounds the refresh job queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WarmCache enqueues a refresh for every team at startup.
	WarmCache bool `koanf:"warm_cache"`

	// DefaultConceptMinutes is a concept's session length before any
	// interpretation scales it.
	DefaultConceptMinutes int `koanf:"default_concept_minutes" validate:"gt=0"`

	// CORSAllowedOrigins lists origins allowed by CORS. Empty allows any
	// origin. Comma separated in env.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds" validate:"gt=0"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		StorageBackend:         BackendMemory,
		PostgresMaxConns:       10,
		CacheBackend:           BackendMemory,
		CacheSize:              1024,
		CacheTTLSeconds:        300,
		WorkerCount:            runtime.NumCPU(),
		QueueSize:              1024,
		WarmCache:              true,
		DefaultConceptMinutes:  15,
		ShutdownTimeoutSeconds: 10,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
