package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PollInterval, convey.ShouldEqual, time.Minute)
				convey.So(cfg.LocalStore.Path, convey.ShouldEqual, "data")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("GAUTIER_ADDR", ":8080")
			_ = os.Setenv("GAUTIER_POLL_INTERVAL", "5s")
			_ = os.Setenv("GAUTIER_REMOTE__URL", "http://localhost:9999/doc")
			_ = os.Setenv("GAUTIER_REMOTE__OPTIMISTIC_CONCURRENCY", "true")
			_ = os.Setenv("GAUTIER_LOCAL_STORE__DRIVER", "sqlite")
			_ = os.Setenv("GAUTIER_LOCAL_STORE__PATH", "/tmp/evals.db")
			_ = os.Setenv("GAUTIER_HTTP__WRITE_RATE_PER_MINUTE", "10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PollInterval, convey.ShouldEqual, 5*time.Second)
				convey.So(cfg.Remote.URL, convey.ShouldEqual, "http://localhost:9999/doc")
				convey.So(cfg.Remote.OptimisticConcurrency, convey.ShouldBeTrue)
				convey.So(cfg.Remote.Timeout, convey.ShouldEqual, 15*time.Second) // From defaults
				convey.So(cfg.LocalStore.Driver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.LocalStore.Path, convey.ShouldEqual, "/tmp/evals.db")
				convey.So(cfg.HTTP.WriteRatePerMinute, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# comments are fine
addr: ":9090"
log_format: json
poll_interval: 30s
catalog_path: /etc/gautier/catalog.yaml
remote:
  url: https://example.com/doc
  timeout: 2s
local_store:
  driver: memory
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAUTIER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.PollInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.CatalogPath, convey.ShouldEqual, "/etc/gautier/catalog.yaml")
				convey.So(cfg.Remote.URL, convey.ShouldEqual, "https://example.com/doc")
				convey.So(cfg.Remote.Timeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.LocalStore.Driver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.LocalStore.Path, convey.ShouldEqual, "data") // From defaults
			})
		})

		convey.Convey("When loading metrics settings from file and environment", func() {
			yamlContent := `
metrics:
  subsystem: residencia
  const_labels:
    site: norte
  latency_buckets_ms: [10, 100, 1000]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAUTIER_CONFIG", tmpFile)
			_ = os.Setenv("GAUTIER_METRICS__NAMESPACE", "hospital")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the metrics section is populated", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Metrics.Namespace, convey.ShouldEqual, "hospital")
				convey.So(cfg.Metrics.Subsystem, convey.ShouldEqual, "residencia")
				convey.So(cfg.Metrics.ConstLabels, convey.ShouldResemble, map[string]string{"site": "norte"})
				convey.So(cfg.Metrics.LatencyBucketsMs, convey.ShouldResemble, []float64{10, 100, 1000})
			})
		})

		convey.Convey("When latency buckets are not increasing", func() {
			cfg := config.New()
			cfg.Metrics.LatencyBucketsMs = []float64{100, 10}
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "latency_buckets_ms")
		})

		convey.Convey("When a const label uses a reserved name", func() {
			cfg := config.New()
			cfg.Metrics.ConstLabels = map[string]string{"__site": "norte"}
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "metrics.const_labels")
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
remote:
  url: https://example.com/doc
  timeout: 2s
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAUTIER_CONFIG", tmpFile)
			_ = os.Setenv("GAUTIER_ADDR", ":8080")
			_ = os.Setenv("GAUTIER_REMOTE__TIMEOUT", "5s")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")                        // Overridden by env
				convey.So(cfg.Remote.URL, convey.ShouldEqual, "https://example.com/doc") // From file
				convey.So(cfg.Remote.Timeout, convey.ShouldEqual, 5*time.Second)       // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("GAUTIER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("GAUTIER_CONFIG", "/non/existent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid duration", func() {
			_ = os.Setenv("GAUTIER_POLL_INTERVAL", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		cases := []struct {
			name string
			env  map[string]string
			msg  string
		}{
			{"empty addr", map[string]string{"GAUTIER_ADDR": ""}, "addr must not be empty"},
			{"poll interval below one second", map[string]string{"GAUTIER_POLL_INTERVAL": "500ms"}, "poll_interval"},
			{"relative remote url", map[string]string{"GAUTIER_REMOTE__URL": "/doc"}, "remote.url"},
			{"unknown driver", map[string]string{"GAUTIER_LOCAL_STORE__DRIVER": "redis"}, "local_store.driver"},
			{"sqlite without path", map[string]string{
				"GAUTIER_LOCAL_STORE__DRIVER": "sqlite",
				"GAUTIER_LOCAL_STORE__PATH":   "",
			}, "local_store.path"},
			{"negative rate", map[string]string{"GAUTIER_HTTP__WRITE_RATE_PER_MINUTE": "-1"}, "write_rate_per_minute"},
			{"bad metrics namespace", map[string]string{"GAUTIER_METRICS__NAMESPACE": "gautier-prod"}, "metrics.namespace"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				for k, v := range tc.env {
					_ = os.Setenv(k, v)
				}
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx)

				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, tc.msg)
			})
		}

		convey.Convey("When the memory driver has no path", func() {
			cfg := config.New()
			cfg.LocalStore.Driver = config.DriverMemory
			cfg.LocalStore.Path = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"GAUTIER_CONFIG",
		"GAUTIER_ADDR",
		"GAUTIER_POLL_INTERVAL",
		"GAUTIER_REMOTE__URL",
		"GAUTIER_REMOTE__TIMEOUT",
		"GAUTIER_REMOTE__OPTIMISTIC_CONCURRENCY",
		"GAUTIER_LOCAL_STORE__DRIVER",
		"GAUTIER_LOCAL_STORE__PATH",
		"GAUTIER_HTTP__WRITE_RATE_PER_MINUTE",
		"GAUTIER_METRICS__NAMESPACE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "gautier-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
