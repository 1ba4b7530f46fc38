package app

import (
	"time"

	"github.com/okian/pitcrew/internal/adapters/ledger"
	"github.com/okian/pitcrew/internal/adapters/roster"
	"github.com/okian/pitcrew/internal/domain/scoring"
	"github.com/okian/pitcrew/internal/domain/workload"
	"github.com/okian/pitcrew/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithProviders injects the roster, skill and rating collaborators.
func WithProviders(r roster.RosterProvider, s roster.SkillProvider, p roster.RatingProvider) Option {
	return func(svc *Service) {
		svc.rosterProv = r
		svc.skillProv = s
		svc.ratingProv = p
	}
}

// WithLedger injects the capacity ledger.
func WithLedger(l ledger.Ledger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.capacity = l
		}
	}
}

// WithWeights sets the composite scoring weights. Validated at Start.
func WithWeights(w scoring.Weights) Option {
	return func(svc *Service) {
		svc.weights = w
	}
}

// WithFallbackPolicy sets the missing-schedule policy.
func WithFallbackPolicy(p workload.FallbackPolicy) Option {
	return func(svc *Service) {
		if p.Valid() {
			svc.fallback = p
		}
	}
}

// WithNeutralPerformanceScore sets the no-history performance default.
func WithNeutralPerformanceScore(score float64) Option {
	return func(svc *Service) {
		if score >= 0 && score <= 100 {
			svc.neutralScore = score
		}
	}
}

// WithRatingWindow bounds the performance retention window.
func WithRatingWindow(maxRatings int, maxAge time.Duration) Option {
	return func(svc *Service) {
		if maxRatings > 0 {
			svc.ratingWindowMax = maxRatings
		}
		if maxAge > 0 {
			svc.ratingWindowAge = maxAge
		}
	}
}

// WithScoringWorkerCount bounds the per-request scoring fan-out.
func WithScoringWorkerCount(count int) Option {
	return func(svc *Service) {
		if count > 0 {
			svc.scoringWorkers = count
		}
	}
}

// WithAuditQueueSize sets the audit queue capacity.
func WithAuditQueueSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.auditQueueSize = size
		}
	}
}

// WithAuditWorkerCount sets the number of audit recording workers.
func WithAuditWorkerCount(count int) Option {
	return func(svc *Service) {
		if count > 0 {
			svc.auditWorkerCount = count
		}
	}
}

// WithAuditTrailSize bounds the retained decision history.
func WithAuditTrailSize(size int) Option {
	return func(svc *Service) {
		if size > 0 {
			svc.auditTrailSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}
