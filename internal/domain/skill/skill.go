// Package skill scores how well a technician's skill records cover the
// skills required by a job.
package skill

import (
	"time"

	"github.com/okian/pitcrew/internal/domain/model"
)

// Default matcher configuration constants.
const (
	defaultBeginnerWeight     = 40
	defaultIntermediateWeight = 70
	defaultExpertWeight       = 100
	defaultUnverifiedFactor   = 0.7
	defaultExpiredFactor      = 0.5
	maxScore                  = 100
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithProficiencyWeights overrides the per-level contribution weights.
func WithProficiencyWeights(beginner, intermediate, expert float64) Option {
	return func(m *Matcher) {
		if beginner > 0 && intermediate >= beginner && expert >= intermediate {
			m.levelWeights[model.Beginner] = beginner
			m.levelWeights[model.Intermediate] = intermediate
			m.levelWeights[model.Expert] = expert
		}
	}
}

// WithUnverifiedFactor sets the multiplier applied to unverified records.
func WithUnverifiedFactor(f float64) Option {
	return func(m *Matcher) {
		if f > 0 && f <= 1 {
			m.unverifiedFactor = f
		}
	}
}

// WithExpiredFactor sets the multiplier applied to expired records.
func WithExpiredFactor(f float64) Option {
	return func(m *Matcher) {
		if f > 0 && f <= 1 {
			m.expiredFactor = f
		}
	}
}

// WithClock replaces the expiry reference clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

// Matcher computes a fit score in [0,100] for a technician against a set of
// required skills. Matching is read-only and safe for concurrent use.
type Matcher struct {
	levelWeights     map[model.Proficiency]float64
	unverifiedFactor float64
	expiredFactor    float64
	now              func() time.Time
}

// NewMatcher creates a matcher with configuration options.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		levelWeights: map[model.Proficiency]float64{
			model.Beginner:     defaultBeginnerWeight,
			model.Intermediate: defaultIntermediateWeight,
			model.Expert:       defaultExpertWeight,
		},
		unverifiedFactor: defaultUnverifiedFactor,
		expiredFactor:    defaultExpiredFactor,
		now:              time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Score returns the mean contribution across required skills. A technician
// with no matching record for a skill contributes 0 for it; a request with
// no required skills scores the neutral maximum.
func (m *Matcher) Score(required []model.RequiredSkill, records []model.SkillRecord) float64 {
	if len(required) == 0 {
		return maxScore
	}

	byID := make(map[string]model.SkillRecord, len(records))
	for _, rec := range records {
		byID[rec.SkillID] = rec
	}

	now := m.now()
	var total float64
	for _, req := range required {
		total += m.contribution(req, byID, now)
	}
	return total / float64(len(required))
}

// HasOverlap reports whether the technician holds at least one of the
// required skills, regardless of level or verification. Used by the
// orchestrator to enforce mandatory-skill exclusion before scoring.
func (m *Matcher) HasOverlap(required []model.RequiredSkill, records []model.SkillRecord) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(records))
	for _, rec := range records {
		held[rec.SkillID] = struct{}{}
	}
	for _, req := range required {
		if _, ok := held[req.SkillID]; ok {
			return true
		}
	}
	return false
}

// contribution computes a single required skill's contribution in [0,100].
func (m *Matcher) contribution(req model.RequiredSkill, byID map[string]model.SkillRecord, now time.Time) float64 {
	rec, ok := byID[req.SkillID]
	if !ok {
		return 0
	}
	if req.MinLevel > 0 && rec.Level < req.MinLevel {
		// Below the requested floor counts the same as missing.
		return 0
	}

	weight, ok := m.levelWeights[rec.Level]
	if !ok {
		return 0
	}
	if !rec.Verified {
		weight *= m.unverifiedFactor
	}
	if rec.Expired(now) {
		weight *= m.expiredFactor
	}
	return weight
}
