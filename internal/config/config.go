// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - Configuration errors fail fast at startup via Validate; request paths
//   never re-validate.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/pitcrew/internal/domain/scoring"
	"github.com/okian/pitcrew/internal/domain/workload"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the ops HTTP listen address for /metrics
	// and /healthz, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`

	// Weights configures the composite scoring strategy. Must be
	// non-negative and sum to 1.0.
	Weights scoring.Weights `koanf:"weights"`

	// MissingScheduleFallback decides how technicians without a schedule
	// entry on the requested date are treated: "available" or
	// "unavailable".
	MissingScheduleFallback string `koanf:"missing_schedule_fallback"`

	// NeutralPerformanceScore substitutes for technicians with no rating
	// history, in [0,100].
	NeutralPerformanceScore float64 `koanf:"neutral_performance_score"`

	// RatingWindowMax caps how many recent ratings are averaged.
	RatingWindowMax int `koanf:"rating_window_max"`

	// RatingWindowDays bounds how old a considered rating may be.
	RatingWindowDays int `koanf:"rating_window_days"`

	// ScoringWorkerCount bounds the per-request candidate scoring fan-out.
	ScoringWorkerCount int `koanf:"scoring_worker_count"`

	// AuditQueueSize bounds the in-memory decision audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit recording workers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// AuditTrailSize bounds how many decisions the audit trail retains.
	AuditTrailSize int `koanf:"audit_trail_size"`
}

// New creates a Config with production defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		MetricsAddr:             ":9090",
		Weights:                 scoring.DefaultWeights(),
		MissingScheduleFallback: string(workload.FallbackAvailable),
		NeutralPerformanceScore: 70,
		RatingWindowMax:         20,
		RatingWindowDays:        90,
		ScoringWorkerCount:      runtime.NumCPU(),
		AuditQueueSize:          10_000,
		AuditWorkerCount:        2,
		AuditTrailSize:          10_000,
	}
}

// Validate fails fast on configuration errors so they never surface at
// request time.
func (c *Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !c.Fallback().Valid() {
		return fmt.Errorf("%w: unknown missing_schedule_fallback %q", ErrInvalidConfig, c.MissingScheduleFallback)
	}
	if c.NeutralPerformanceScore < 0 || c.NeutralPerformanceScore > 100 {
		return fmt.Errorf("%w: neutral_performance_score %v outside [0,100]", ErrInvalidConfig, c.NeutralPerformanceScore)
	}
	if c.RatingWindowMax < 1 {
		return fmt.Errorf("%w: rating_window_max must be positive", ErrInvalidConfig)
	}
	if c.RatingWindowDays < 1 {
		return fmt.Errorf("%w: rating_window_days must be positive", ErrInvalidConfig)
	}
	return nil
}

// Fallback returns the typed missing-schedule policy.
func (c *Config) Fallback() workload.FallbackPolicy {
	return workload.FallbackPolicy(c.MissingScheduleFallback)
}
