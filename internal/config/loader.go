package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "GAUTIER_"
	envFileVar = envPrefix + "CONFIG"
)

// metricName is the Prometheus grammar for namespaces, subsystems and
// label names.
var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GAUTIER_CONFIG is set
//  3. env (prefix GAUTIER_, "__" separates sections)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// GAUTIER_REMOTE__URL -> remote.url, GAUTIER_POLL_INTERVAL -> poll_interval.
	// Single underscores are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileVar {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the process relies on.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.PollInterval < time.Second {
		return fmt.Errorf("%w: poll_interval must be at least 1s, got %s", ErrInvalidConfig, c.PollInterval)
	}
	u, err := url.Parse(c.Remote.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: remote.url must be an absolute URL, got %q", ErrInvalidConfig, c.Remote.URL)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("%w: remote.timeout must not be negative", ErrInvalidConfig)
	}
	switch c.LocalStore.Driver {
	case DriverFile, DriverSQLite:
		if c.LocalStore.Path == "" {
			return fmt.Errorf("%w: local_store.path is required for driver %q", ErrInvalidConfig, c.LocalStore.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown local_store.driver %q", ErrInvalidConfig, c.LocalStore.Driver)
	}
	if c.HTTP.WriteRatePerMinute < 0 {
		return fmt.Errorf("%w: http.write_rate_per_minute must not be negative", ErrInvalidConfig)
	}
	return c.Metrics.validate()
}

func (m Metrics) validate() error {
	for key, v := range map[string]string{"metrics.namespace": m.Namespace, "metrics.subsystem": m.Subsystem} {
		if v != "" && !metricName.MatchString(v) {
			return fmt.Errorf("%w: %s %q is not a valid metric name", ErrInvalidConfig, key, v)
		}
	}
	for name := range m.ConstLabels {
		if !metricName.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics.const_labels has invalid label name %q", ErrInvalidConfig, name)
		}
	}
	for i := 1; i < len(m.LatencyBucketsMs); i++ {
		if m.LatencyBucketsMs[i] <= m.LatencyBucketsMs[i-1] {
			return fmt.Errorf("%w: metrics.latency_buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}
