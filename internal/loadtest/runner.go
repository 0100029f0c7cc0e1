package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/halo/pkg/logger"
)

const directoryPermission = 0o750

// Sentinel errors for a failed run.
var (
	ErrNotReady     = errors.New("service is not ready")
	ErrInconsistent = errors.New("responses do not match submitted samples")
	ErrInvalidRun   = errors.New("invalid load test configuration")
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.Samples <= 0 || cfg.Workers <= 0 || cfg.Jitter < 0 {
		return nil, fmt.Errorf("%w: samples and workers must be positive, jitter non-negative", ErrInvalidRun)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	stats := &Stats{StartTime: time.Now()}
	log.Info(ctx, "starting halo load test",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("samples", cfg.Samples),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	if err := checkReadiness(ctx, cfg); err != nil {
		return nil, err
	}

	samples, err := generateSamples(cfg)
	if err != nil {
		return nil, fmt.Errorf("sample generation failed: %w", err)
	}
	stats.Generated = len(samples)
	for _, s := range samples {
		if !s.Valid {
			stats.InvalidSent++
		}
	}

	submitSamples(ctx, cfg, samples, stats)

	if cfg.OutputFile != "" {
		if err := saveSamples(cfg.OutputFile, samples); err != nil {
			log.Warn(ctx, "failed to save samples", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, verify(stats)
}

// checkReadiness verifies the service has a model loaded.
func checkReadiness(ctx context.Context, cfg *Config) error {
	resp, err := newHTTPClient(cfg.Timeout).Get(ctx, cfg.BaseURL+"/readyz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}
	return nil
}

// verify checks that every valid sample was scored and every malformed one rejected.
func verify(stats *Stats) error {
	switch {
	case stats.Failed > 0:
		return fmt.Errorf("%w: %d failed or mismatched responses", ErrInconsistent, stats.Failed)
	case stats.Rejected != stats.InvalidSent:
		return fmt.Errorf("%w: sent %d malformed samples, %d rejected", ErrInconsistent, stats.InvalidSent, stats.Rejected)
	case stats.Submitted != stats.Generated:
		return fmt.Errorf("%w: generated %d, submitted %d", ErrInconsistent, stats.Generated, stats.Submitted)
	}
	return nil
}

func saveSamples(filename string, samples []Sample) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, append(data, '\n'), 0o600)
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("alerts", stats.Alerts),
		logger.Int("watches", stats.Watches),
		logger.Int("clears", stats.Clears),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requestsPerSecond", perSecond),
	)
}
