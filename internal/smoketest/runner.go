package smoketest

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/catalog"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/internal/domain/model"
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Defaults applied by Run to zero fields.
const (
	DefaultCount   = 20
	DefaultTimeout = 30 * time.Second
)

// Run executes the complete smoke test and returns its statistics. The run
// fails when any created record does not read back as written.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	applyDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting evaluations smoke test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("count", cfg.Count),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("keep", cfg.Keep))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate drafts from the served catalog
	var cat catalog.Catalog
	if err := client.getJSON(ctx, "/catalog", &cat); err != nil {
		return stats, fmt.Errorf("catalog retrieval failed: %w", err)
	}
	if len(cat.AcademicYears) == 0 || len(cat.Trimesters) == 0 {
		return stats, fmt.Errorf("catalog has no academic years or trimesters")
	}
	tag := "smoke" + strconv.FormatUint(cfg.Seed, 36)
	drafts := generateDrafts(ctx, cfg, &cat, tag, stats)

	// Step 3: Submit concurrently
	created := submitDrafts(ctx, cfg, client, drafts, stats)

	// Step 4: Verify
	verifyErr := verifyResults(ctx, client, created, drafts, tag, stats)

	// Step 5: Clean up
	if !cfg.Keep {
		cleanup(ctx, client, created, stats)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verifyErr)
	}
	if stats.Created == 0 && cfg.Count > 0 {
		return stats, fmt.Errorf("no evaluation could be created")
	}
	log.Info(ctx, "smoke test completed successfully")
	return stats, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	status, _, err := client.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// cleanup deletes what the run created, one at a time since every delete
// rewrites the whole remote document anyway.
func cleanup(ctx context.Context, client *HTTPClient, created []model.Evaluation, stats *Stats) {
	for _, ev := range created {
		if ev.ID == "" {
			continue
		}
		if err := client.remove(ctx, ev.ID); err != nil {
			logger.Get().Warn(ctx, "cleanup failed", logger.String("id", ev.ID), logger.Error(err))
			continue
		}
		stats.Deleted++
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, writesPerSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Created) / float64(stats.Submitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		writesPerSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("deleted", stats.Deleted),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("writesPerSecond", writesPerSecond))
}
