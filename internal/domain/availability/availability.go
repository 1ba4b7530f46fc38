// Package availability implements the hard eligibility filter that runs
// before any candidate is scored.
package availability

import (
	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/internal/domain/workload"
)

// Reason explains why a technician was filtered out. Ineligible
// technicians never enter the ranked list, so the reason is the only
// trace they leave.
type Reason string

// Exclusion reasons reported by Check.
const (
	ReasonEligible          Reason = ""
	ReasonInactive          Reason = "inactive"
	ReasonWrongCenter       Reason = "not_at_center"
	ReasonUnscheduled       Reason = "unscheduled"
	ReasonMarkedUnavailable Reason = "marked_unavailable"
	ReasonInsufficientTime  Reason = "insufficient_capacity"
)

// Option applies a configuration option to the Checker.
type Option func(*Checker)

// WithFallbackPolicy sets how a missing schedule entry is treated. Under
// the available policy an unscheduled technician passes the filter; under
// the unavailable policy they are excluded.
func WithFallbackPolicy(p workload.FallbackPolicy) Option {
	return func(c *Checker) {
		if p.Valid() {
			c.fallback = p
		}
	}
}

// Checker decides binary eligibility for a technician against a request.
// Stateless and safe for concurrent use.
type Checker struct {
	fallback workload.FallbackPolicy
}

// NewChecker creates a checker with configuration options.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		fallback: workload.FallbackAvailable,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Check returns whether the technician may be scored for the request, and
// the exclusion reason when not. The entry pointer is nil when no schedule
// entry exists for the requested date at the center.
func (c *Checker) Check(tech model.Technician, entry *model.ScheduleEntry, centerID string, durationMin int) (bool, Reason) {
	if !tech.Active {
		return false, ReasonInactive
	}
	if !tech.WorksAt(centerID) {
		return false, ReasonWrongCenter
	}
	if entry == nil {
		if c.fallback == workload.FallbackUnavailable {
			return false, ReasonUnscheduled
		}
		// Default-available policy: no entry means a fully open day.
		return true, ReasonEligible
	}
	if !entry.Available {
		return false, ReasonMarkedUnavailable
	}
	if entry.AvailableMin() < durationMin {
		return false, ReasonInsufficientTime
	}
	return true, ReasonEligible
}
