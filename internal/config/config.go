// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New builds a Config with defaults; Load layers file and env on top.
//   - Validation errors wrap ErrInvalidConfig, load failures wrap ErrLoadConfig.
package config

import (
	"runtime"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory scoring job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// FetchConcurrency bounds concurrent repository calls per request.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// StoreDriver selects the repository backend: memory or postgres.
	StoreDriver string `koanf:"store_driver"`

	// DatabaseURL is the Postgres DSN used when StoreDriver is postgres.
	DatabaseURL string `koanf:"database_url"`

	// DemoStudents seeds the memory store with a synthetic roster when > 0.
	DemoStudents int `koanf:"demo_students"`

	// DemoSeed makes the synthetic roster reproducible.
	DemoSeed int64 `koanf:"demo_seed"`

	// MaxRosterSize rejects rankings over rosters larger than this.
	MaxRosterSize int `koanf:"max_roster_size"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric
	// name, e.g. edurank_engine_rankings_computed_total.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBuckets overrides the latency histogram buckets, in
	// milliseconds. Empty keeps the built-in buckets.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`

	// MetricsLabels are constant labels attached to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		FetchConcurrency: 16,
		StoreDriver:      DriverMemory,
		DemoStudents:     0,
		DemoSeed:         1,
		MaxRosterSize:    5_000,
		MetricsNamespace: "edurank",
		MetricsSubsystem: "engine",
	}
}
