// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers a YAML file and the environment over those defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"time"
)

// Local store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// LogFile, when set, tees logs into a rotating file.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PollInterval is the period of the background pull.
	PollInterval time.Duration `koanf:"poll_interval"`

	// CatalogPath overrides the embedded evaluation catalog.
	CatalogPath string `koanf:"catalog_path"`

	Remote     Remote     `koanf:"remote"`
	LocalStore LocalStore `koanf:"local_store"`
	HTTP       HTTP       `koanf:"http"`
	Metrics    Metrics    `koanf:"metrics"`
}

// Remote configures the shared JSON document endpoint.
type Remote struct {
	URL string `koanf:"url"`

	// Timeout bounds each request; 0 disables it.
	Timeout time.Duration `koanf:"timeout"`

	// OptimisticConcurrency sends If-Match with the fetched ETag on writes.
	OptimisticConcurrency bool `koanf:"optimistic_concurrency"`
}

// LocalStore configures the durable local copy.
type LocalStore struct {
	// Driver is one of file, sqlite, memory.
	Driver string `koanf:"driver"`

	// Path is a directory for the file driver and a database file for sqlite.
	Path string `koanf:"path"`
}

// HTTP configures the API surface.
type HTTP struct {
	// WriteRatePerMinute caps mutating requests per client IP; 0 disables it.
	WriteRatePerMinute int `koanf:"write_rate_per_minute"`
}

// Metrics shapes the Prometheus series served on /healthz. Empty values keep
// the built-in defaults.
type Metrics struct {
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`

	// ConstLabels are attached to every series, e.g. {site: norte}.
	ConstLabels map[string]string `koanf:"const_labels"`

	// LatencyBucketsMs replaces the histogram buckets; must be increasing.
	LatencyBucketsMs []float64 `koanf:"latency_buckets_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		PollInterval: 60 * time.Second,
		Remote: Remote{
			URL:     "https://api.npoint.io/07d5810f63ca52f10f81",
			Timeout: 15 * time.Second,
		},
		LocalStore: LocalStore{
			Driver: DriverFile,
			Path:   "data",
		},
		HTTP: HTTP{
			WriteRatePerMinute: 60,
		},
		Metrics: Metrics{
			Namespace: "gautier",
			Subsystem: "evaluations",
		},
	}
}
