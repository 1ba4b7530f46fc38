// Package scoring combines per-criterion sub-scores into a composite and
// ranks candidates deterministically.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/pitcrew/internal/domain/model"
)

// Default weight configuration constants.
const (
	defaultSkillWeight        = 0.4
	defaultWorkloadWeight     = 0.3
	defaultPerformanceWeight  = 0.2
	defaultAvailabilityWeight = 0.1
	weightSumTolerance        = 1e-9
)

// SubScores carries the four criterion scores for one candidate, each in
// [0,100].
type SubScores struct {
	Skill        float64
	Workload     float64
	Performance  float64
	Availability float64
}

// Strategy computes a composite score from sub-scores. Implementations
// must be pure so scoring can run fully in parallel.
type Strategy interface {
	Composite(s SubScores) float64
}

// Weights configures the linear weighted-sum strategy.
type Weights struct {
	Skill        float64 `koanf:"skill"`
	Workload     float64 `koanf:"workload"`
	Performance  float64 `koanf:"performance"`
	Availability float64 `koanf:"availability"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Skill:        defaultSkillWeight,
		Workload:     defaultWorkloadWeight,
		Performance:  defaultPerformanceWeight,
		Availability: defaultAvailabilityWeight,
	}
}

// Validate fails fast on configuration errors: every weight must be
// non-negative and the sum must be exactly 1.0. Validation runs at
// startup, never at request time.
func (w Weights) Validate() error {
	if w.Skill < 0 || w.Workload < 0 || w.Performance < 0 || w.Availability < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidWeights)
	}
	sum := w.Skill + w.Workload + w.Performance + w.Availability
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

// WeightedSum is the default linear Strategy.
type WeightedSum struct {
	weights Weights
}

// NewWeightedSum validates the weights and returns the strategy.
func NewWeightedSum(w Weights) (*WeightedSum, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &WeightedSum{weights: w}, nil
}

// Composite implements Strategy. Monotonically non-decreasing in each
// sub-score since all weights are non-negative.
func (s *WeightedSum) Composite(in SubScores) float64 {
	return s.weights.Skill*in.Skill +
		s.weights.Workload*in.Workload +
		s.weights.Performance*in.Performance +
		s.weights.Availability*in.Availability
}

// Rank sorts candidates in place: composite desc, then skill score desc,
// then booked minutes asc, then technician id asc. Fully deterministic so
// repeated runs over the same inputs produce the same order.
func Rank(candidates []model.CandidateScore) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.Skill != b.Skill {
			return a.Skill > b.Skill
		}
		if a.BookedMin != b.BookedMin {
			return a.BookedMin < b.BookedMin
		}
		return a.TechnicianID < b.TechnicianID
	})
}
