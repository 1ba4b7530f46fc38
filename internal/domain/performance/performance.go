// Package performance scores a technician by recent historical rating
// quality.
package performance

import (
	"sort"
	"time"

	"github.com/okian/pitcrew/internal/domain/model"
)

// Default evaluator configuration constants.
const (
	defaultNeutralScore = 70
	defaultMaxRatings   = 20
	defaultMaxAgeDays   = 90
	ratingCeiling       = 5
	maxScore            = 100
)

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithNeutralScore sets the score used when a technician has no ratings in
// the window, so new hires are not penalized to zero.
func WithNeutralScore(score float64) Option {
	return func(e *Evaluator) {
		if score >= 0 && score <= maxScore {
			e.neutral = score
		}
	}
}

// WithRetentionWindow bounds the ratings considered: at most maxRatings of
// the newest ratings, none older than maxAge.
func WithRetentionWindow(maxRatings int, maxAge time.Duration) Option {
	return func(e *Evaluator) {
		if maxRatings > 0 {
			e.maxRatings = maxRatings
		}
		if maxAge > 0 {
			e.maxAge = maxAge
		}
	}
}

// WithClock replaces the window reference clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator computes performance scores over a bounded recent window.
// Read-only and safe for concurrent use.
type Evaluator struct {
	neutral    float64
	maxRatings int
	maxAge     time.Duration
	now        func() time.Time
}

// NewEvaluator creates an evaluator with configuration options.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		neutral:    defaultNeutralScore,
		maxRatings: defaultMaxRatings,
		maxAge:     defaultMaxAgeDays * 24 * time.Hour,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Score returns (mean overall rating / 5) * 100 across the retention
// window, or the configured neutral score when no rating falls inside it.
func (e *Evaluator) Score(ratings []model.PerformanceRating) float64 {
	recent := e.window(ratings)
	if len(recent) == 0 {
		return e.neutral
	}

	var sum float64
	for _, r := range recent {
		sum += r.Overall
	}
	mean := sum / float64(len(recent))

	score := mean / ratingCeiling * maxScore
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// window selects the newest ratings within the age bound, capped at
// maxRatings.
func (e *Evaluator) window(ratings []model.PerformanceRating) []model.PerformanceRating {
	cutoff := e.now().Add(-e.maxAge)

	recent := make([]model.PerformanceRating, 0, len(ratings))
	for _, r := range ratings {
		if r.RatedAt.After(cutoff) {
			recent = append(recent, r)
		}
	}

	// Newest first so the count cap keeps the freshest signal.
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].RatedAt.After(recent[j].RatedAt)
	})
	if len(recent) > e.maxRatings {
		recent = recent[:e.maxRatings]
	}
	return recent
}
