// Package app implements the assignment orchestrator: it filters the
// roster, fans out scoring, ranks candidates deterministically and commits
// the winner against the capacity ledger.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pitcrew/internal/adapters/ledger"
	"github.com/okian/pitcrew/internal/adapters/mq/queue"
	"github.com/okian/pitcrew/internal/adapters/mq/worker"
	"github.com/okian/pitcrew/internal/adapters/roster"
	"github.com/okian/pitcrew/internal/domain/audit"
	"github.com/okian/pitcrew/internal/domain/availability"
	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/internal/domain/performance"
	"github.com/okian/pitcrew/internal/domain/scoring"
	"github.com/okian/pitcrew/internal/domain/skill"
	"github.com/okian/pitcrew/internal/domain/workload"
	"github.com/okian/pitcrew/pkg/logger"
	"github.com/okian/pitcrew/pkg/metrics"
)

// Assignment pipeline stages, for logging and stats.
const (
	stageRequested = "requested"
	stageFiltered  = "filtered"
	stageScored    = "scored"
	stageRanked    = "ranked"
	stageCommitted = "committed"
	stageExhausted = "exhausted"
)

// eligibleScore is the availability sub-score every candidate that passed
// the hard filter carries into the composite.
const eligibleScore = 100

// Service implements the assignment API consumed by check-in and
// work-order flows.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	rosterProv roster.RosterProvider
	skillProv  roster.SkillProvider
	ratingProv roster.RatingProvider
	capacity   ledger.Ledger

	// Core components
	matcher   *skill.Matcher
	workload  *workload.Evaluator
	perf      *performance.Evaluator
	checker   *availability.Checker
	strategy  scoring.Strategy
	trail     audit.Trail
	auditQ    queue.Queue
	auditPool *worker.Pool

	// Configuration
	weights          scoring.Weights
	fallback         workload.FallbackPolicy
	neutralScore     float64
	ratingWindowMax  int
	ratingWindowAge  time.Duration
	scoringWorkers   int
	auditQueueSize   int
	auditWorkerCount int
	auditTrailSize   int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:          scoring.DefaultWeights(),
		fallback:         workload.FallbackAvailable,
		neutralScore:     70,
		ratingWindowMax:  20,
		ratingWindowAge:  90 * 24 * time.Hour,
		scoringWorkers:   runtime.NumCPU(),
		auditQueueSize:   10000,
		auditWorkerCount: 2,
		auditTrailSize:   10000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates configuration and wires the components. Weight errors
// fail here, never at request time.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("assignment")
	}
	if s.rosterProv == nil || s.skillProv == nil || s.ratingProv == nil {
		return ErrMissingProvider
	}
	if s.capacity == nil {
		return ErrMissingLedger
	}

	strategy, err := scoring.NewWeightedSum(s.weights)
	if err != nil {
		return err
	}
	s.strategy = strategy

	s.matcher = skill.NewMatcher()
	s.workload = workload.NewEvaluator(workload.WithFallbackPolicy(s.fallback))
	s.perf = performance.NewEvaluator(
		performance.WithNeutralScore(s.neutralScore),
		performance.WithRetentionWindow(s.ratingWindowMax, s.ratingWindowAge),
	)
	s.checker = availability.NewChecker(availability.WithFallbackPolicy(s.fallback))

	s.trail = audit.NewMemoryTrail(audit.WithMaxSize(s.auditTrailSize))
	s.auditQ = queue.NewInMemoryQueue(
		queue.WithCapacity(s.auditQueueSize),
		queue.WithBufferSize(s.auditQueueSize),
	)
	s.auditPool = worker.NewPool(s.auditWorkerCount, s.auditQ, &trailRecorder{trail: s.trail})
	s.auditPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "assignment service started",
		logger.String("fallback", string(s.fallback)),
		logger.Int("scoringWorkers", s.scoringWorkers),
		logger.Int("auditWorkers", s.auditWorkerCount),
	)

	return nil
}

// Stop gracefully shuts down the audit pipeline.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	if s.auditQ != nil {
		_ = s.auditQ.Close()
	}
	if s.auditPool != nil {
		_ = s.auditPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "assignment service stopped")
}

// trailRecorder adapts audit.Trail to the worker.Recorder interface.
type trailRecorder struct {
	trail audit.Trail
}

func (r *trailRecorder) Record(ctx context.Context, d worker.Decision) {
	r.trail.Record(ctx, d)
	metrics.UpdateAuditTrailSize(int(r.trail.Size()))
}

// FindBestTechnician filters the roster, scores every eligible candidate
// in parallel and returns the ranked decision. The decision is immutable
// and carries ordered alternates for commit-race fallback; no capacity is
// reserved until CommitAssignment.
func (s *Service) FindBestTechnician(ctx context.Context, req model.AssignmentRequest) (model.AssignmentDecision, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	metrics.RecordAssignmentRequested()

	if req.DurationMin <= 0 {
		return model.AssignmentDecision{}, fmt.Errorf("%w: duration %d", ErrInvalidRequest, req.DurationMin)
	}

	normalized := make([]model.RequiredSkill, len(req.RequiredSkills))
	for i, rs := range req.RequiredSkills {
		rs.SkillID = model.NormalizeSkillID(rs.SkillID)
		normalized[i] = rs
	}
	req.RequiredSkills = normalized

	s.logger.Debug(ctx, "assignment request",
		logger.String("stage", stageRequested),
		logger.String("centerID", req.CenterID),
		logger.String("workDate", req.WorkDate),
		logger.Int("durationMin", req.DurationMin),
	)

	candidates, err := s.filterCandidates(ctx, req)
	if err != nil {
		return model.AssignmentDecision{}, err
	}
	if len(candidates) == 0 {
		metrics.RecordNoEligibleCandidates()
		s.logger.Info(ctx, "no eligible candidates",
			logger.String("stage", stageFiltered),
			logger.String("centerID", req.CenterID),
			logger.String("workDate", req.WorkDate),
		)
		return model.AssignmentDecision{}, ErrNoEligibleCandidates
	}
	metrics.ObserveEligibleCandidates(len(candidates))

	scored, err := s.scoreCandidates(ctx, req, candidates)
	if err != nil {
		return model.AssignmentDecision{}, err
	}

	scoring.Rank(scored)

	decision := model.AssignmentDecision{
		ID:          uuid.NewString(),
		CenterID:    req.CenterID,
		WorkDate:    req.WorkDate,
		DurationMin: req.DurationMin,
		Chosen:      scored[0],
		Alternates:  scored[1:],
		DecidedAt:   time.Now().UTC(),
	}

	// Audit off the request path; a full queue drops the record rather
	// than delaying the caller.
	if !s.auditQ.Enqueue(ctx, decision) {
		s.logger.Warn(ctx, "audit queue full, decision not recorded",
			logger.String("decisionID", decision.ID),
		)
	}

	s.logger.Debug(ctx, "decision ranked",
		logger.String("stage", stageRanked),
		logger.String("decisionID", decision.ID),
		logger.String("chosen", decision.Chosen.TechnicianID),
		logger.Float64("composite", decision.Chosen.Composite),
		logger.Int("alternates", len(decision.Alternates)),
	)

	return decision, nil
}

// candidate pairs a technician with their pre-fetched scoring inputs.
type candidate struct {
	tech    model.Technician
	records []model.SkillRecord
	entry   *model.ScheduleEntry
}

// filterCandidates applies the hard availability filter plus the
// mandatory-skill exclusion. Ineligible technicians never reach scoring.
func (s *Service) filterCandidates(ctx context.Context, req model.AssignmentRequest) ([]candidate, error) {
	techs, err := s.rosterProv.TechniciansAt(ctx, req.CenterID)
	if err != nil {
		return nil, fmt.Errorf("roster lookup failed: %w", err)
	}

	eligible := make([]candidate, 0, len(techs))
	for _, tech := range techs {
		records, err := s.skillProv.SkillsOf(ctx, tech.ID)
		if err != nil {
			return nil, fmt.Errorf("skill lookup for %s failed: %w", tech.ID, err)
		}

		if req.SkillsMandatory && !s.matcher.HasOverlap(req.RequiredSkills, records) {
			s.logger.Debug(ctx, "excluded before scoring",
				logger.String("technicianID", tech.ID),
				logger.String("reason", "no_skill_overlap"),
			)
			continue
		}

		var entry *model.ScheduleEntry
		e, err := s.capacity.EntryFor(ctx, tech.ID, req.CenterID, req.WorkDate)
		switch {
		case err == nil:
			entry = &e
		case errors.Is(err, ledger.ErrEntryNotFound):
			// Stale schedule data: resolved by the configured fallback
			// policy inside the checker and workload evaluator.
			metrics.RecordErrorByComponent("assignment", "stale_schedule_data")
		default:
			return nil, fmt.Errorf("schedule lookup for %s failed: %w", tech.ID, err)
		}

		ok, reason := s.checker.Check(tech, entry, req.CenterID, req.DurationMin)
		if !ok {
			s.logger.Debug(ctx, "excluded before scoring",
				logger.String("technicianID", tech.ID),
				logger.String("reason", string(reason)),
			)
			continue
		}

		eligible = append(eligible, candidate{tech: tech, records: records, entry: entry})
	}

	return eligible, nil
}

// scoreCandidates fans sub-score computation out across a bounded worker
// set. Scoring is pure and read-only, so candidates are scored fully in
// parallel; only the eventual ledger commit mutates shared state.
func (s *Service) scoreCandidates(ctx context.Context, req model.AssignmentRequest, candidates []candidate) ([]model.CandidateScore, error) {
	workers := s.scoringWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	type job struct {
		idx int
		c   candidate
	}

	jobs := make(chan job)
	out := make([]model.CandidateScore, len(candidates))
	errs := make([]error, len(candidates))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out[j.idx], errs[j.idx] = s.scoreOne(ctx, req, j.c)
			}
		}()
	}

	for i, c := range candidates {
		jobs <- job{idx: i, c: c}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug(ctx, "candidates scored",
		logger.String("stage", stageScored),
		logger.Int("count", len(out)),
	)
	return out, nil
}

// scoreOne computes the per-criterion and composite scores for a single
// candidate.
func (s *Service) scoreOne(ctx context.Context, req model.AssignmentRequest, c candidate) (model.CandidateScore, error) {
	ratings, err := s.ratingProv.RatingsOf(ctx, c.tech.ID)
	if err != nil {
		return model.CandidateScore{}, fmt.Errorf("rating lookup for %s failed: %w", c.tech.ID, err)
	}

	sub := scoring.SubScores{
		Skill:        s.matcher.Score(req.RequiredSkills, c.records),
		Workload:     s.workload.Score(c.entry),
		Performance:  s.perf.Score(ratings),
		Availability: eligibleScore,
	}

	cs := model.CandidateScore{
		TechnicianID: c.tech.ID,
		Composite:    s.strategy.Composite(sub),
		Skill:        sub.Skill,
		Workload:     sub.Workload,
		Performance:  sub.Performance,
		Availability: sub.Availability,
	}
	if c.entry != nil {
		cs.ScheduleEntryID = c.entry.ID
		cs.BookedMin = c.entry.BookedMin
	}
	return cs, nil
}

// CommitAssignment reserves capacity for the decision's chosen technician.
// A lost capacity race does not restart scoring: the commit is retried
// down the ordered alternate list. When every candidate races out the
// caller gets ErrAssignmentExhausted.
func (s *Service) CommitAssignment(ctx context.Context, d model.AssignmentDecision) (model.CandidateScore, error) {
	for _, cand := range d.Candidates() {
		if cand.ScheduleEntryID == "" {
			// Default-available candidate with no schedule entry yet:
			// there is nothing to book against, so the assignment
			// succeeds without a reservation.
			metrics.RecordAssignmentCommitted()
			s.logger.Info(ctx, "assignment committed without schedule entry",
				logger.String("stage", stageCommitted),
				logger.String("decisionID", d.ID),
				logger.String("technicianID", cand.TechnicianID),
			)
			return cand, nil
		}

		_, err := s.capacity.Commit(ctx, cand.ScheduleEntryID, d.DurationMin)
		switch {
		case err == nil:
			metrics.RecordAssignmentCommitted()
			s.logger.Info(ctx, "assignment committed",
				logger.String("stage", stageCommitted),
				logger.String("decisionID", d.ID),
				logger.String("technicianID", cand.TechnicianID),
				logger.Int("durationMin", d.DurationMin),
			)
			return cand, nil
		case errors.Is(err, ledger.ErrCapacityExceeded):
			// Lost the race for this technician; fall through to the
			// next alternate.
			s.logger.Debug(ctx, "capacity race lost, trying alternate",
				logger.String("decisionID", d.ID),
				logger.String("technicianID", cand.TechnicianID),
			)
			continue
		default:
			return model.CandidateScore{}, fmt.Errorf("commit for %s failed: %w", cand.TechnicianID, err)
		}
	}

	metrics.RecordAssignmentExhausted()
	s.logger.Warn(ctx, "all candidates raced out",
		logger.String("stage", stageExhausted),
		logger.String("decisionID", d.ID),
	)
	return model.CandidateScore{}, ErrAssignmentExhausted
}

// ReleaseAssignment returns reserved capacity after a cancellation that
// followed a successful commit. Cancellation before commit needs no
// compensation.
func (s *Service) ReleaseAssignment(ctx context.Context, technicianID, scheduleEntryID string, durationMin int) error {
	if _, err := s.capacity.Release(ctx, scheduleEntryID, durationMin); err != nil {
		return fmt.Errorf("release for %s failed: %w", technicianID, err)
	}

	s.logger.Info(ctx, "assignment released",
		logger.String("technicianID", technicianID),
		logger.String("scheduleEntryID", scheduleEntryID),
		logger.Int("durationMin", durationMin),
	)
	return nil
}

// RecentDecisions returns up to n audited decisions, newest first.
func (s *Service) RecentDecisions(ctx context.Context, n int) []model.AssignmentDecision {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.trail == nil {
		return nil
	}
	return s.trail.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"scoringWorkers": s.scoringWorkers,
		"auditWorkers":   s.auditWorkerCount,
	}

	if s.started {
		stats["auditQueueLength"] = s.auditQ.Len(ctx)
		stats["auditedDecisions"] = s.trail.Size()
		stats["scheduleEntries"] = s.capacity.Count(ctx)
	}

	return stats
}
