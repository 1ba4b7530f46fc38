// Package workload scores a technician by remaining capacity relative to
// the day's maximum.
package workload

import (
	"github.com/okian/pitcrew/internal/domain/model"
)

// Default evaluator configuration constants.
const (
	maxScore = 100
)

// FallbackPolicy decides how a missing schedule entry for the requested
// date is treated.
type FallbackPolicy string

// Fallback policies for technicians with no schedule entry on the date.
const (
	// FallbackAvailable treats an unscheduled technician as fully free.
	FallbackAvailable FallbackPolicy = "available"
	// FallbackUnavailable treats an unscheduled technician as having no
	// capacity; the availability filter excludes them upstream.
	FallbackUnavailable FallbackPolicy = "unavailable"
)

// Valid reports whether p is a known policy.
func (p FallbackPolicy) Valid() bool {
	return p == FallbackAvailable || p == FallbackUnavailable
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithFallbackPolicy sets the missing-entry policy.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(e *Evaluator) {
		if p.Valid() {
			e.fallback = p
		}
	}
}

// Evaluator computes workload scores. Stateless and safe for concurrent
// use.
type Evaluator struct {
	fallback FallbackPolicy
}

// NewEvaluator creates an evaluator with configuration options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		fallback: FallbackAvailable,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Score returns 100 * available/max clamped to [0,100]. The entry pointer
// is nil when the technician has no schedule entry for the date; the
// configured fallback policy then decides the score.
func (e *Evaluator) Score(entry *model.ScheduleEntry) float64 {
	if entry == nil {
		if e.fallback == FallbackUnavailable {
			return 0
		}
		return maxScore
	}
	if entry.MaxCapacityMin <= 0 {
		return 0
	}

	score := maxScore * float64(entry.AvailableMin()) / float64(entry.MaxCapacityMin)
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// Fallback exposes the configured policy so the availability filter can
// apply the same treatment to unscheduled technicians.
func (e *Evaluator) Fallback() FallbackPolicy {
	return e.fallback
}
