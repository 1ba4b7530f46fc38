// Package roster provides the collaborator-facing data sources the
// assignment core consumes: technician rosters, skill records and
// performance ratings. The in-memory implementations back tests and the
// standalone binary; production deployments swap in real providers.
package roster

import (
	"context"
	"sync"

	"github.com/okian/pitcrew/internal/domain/model"
)

// RosterProvider lists active technicians per service center.
type RosterProvider interface {
	// TechniciansAt returns every technician assigned to the center,
	// including inactive ones; the availability filter handles those.
	TechniciansAt(ctx context.Context, centerID string) ([]model.Technician, error)
}

// SkillProvider returns skill records per technician.
type SkillProvider interface {
	SkillsOf(ctx context.Context, technicianID string) ([]model.SkillRecord, error)
}

// RatingProvider returns performance ratings per technician. Callers
// apply their own retention window.
type RatingProvider interface {
	RatingsOf(ctx context.Context, technicianID string) ([]model.PerformanceRating, error)
}

// MemoryRoster implements all three provider interfaces over process
// memory. Skill identifiers are normalized once at load time so matching
// never re-parses raw names.
type MemoryRoster struct {
	mu       sync.RWMutex
	byCenter map[string][]model.Technician
	skills   map[string][]model.SkillRecord
	ratings  map[string][]model.PerformanceRating
}

// NewMemoryRoster creates an empty in-memory roster.
func NewMemoryRoster() *MemoryRoster {
	return &MemoryRoster{
		byCenter: make(map[string][]model.Technician),
		skills:   make(map[string][]model.SkillRecord),
		ratings:  make(map[string][]model.PerformanceRating),
	}
}

// AddTechnician registers a technician at each of their centers.
func (r *MemoryRoster) AddTechnician(t model.Technician) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, centerID := range t.CenterIDs {
		r.byCenter[centerID] = append(r.byCenter[centerID], t)
	}
}

// AddSkill stores a skill record with its identifier normalized.
func (r *MemoryRoster) AddSkill(rec model.SkillRecord) {
	rec.SkillID = model.NormalizeSkillID(rec.SkillID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.skills[rec.TechnicianID] = append(r.skills[rec.TechnicianID], rec)
}

// AddRating appends a performance rating. Ratings are append-only.
func (r *MemoryRoster) AddRating(rating model.PerformanceRating) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings[rating.TechnicianID] = append(r.ratings[rating.TechnicianID], rating)
}

// TechniciansAt implements RosterProvider.
func (r *MemoryRoster) TechniciansAt(ctx context.Context, centerID string) ([]model.Technician, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	techs := r.byCenter[centerID]
	out := make([]model.Technician, len(techs))
	copy(out, techs)
	return out, nil
}

// SkillsOf implements SkillProvider.
func (r *MemoryRoster) SkillsOf(ctx context.Context, technicianID string) ([]model.SkillRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.skills[technicianID]
	out := make([]model.SkillRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// RatingsOf implements RatingProvider.
func (r *MemoryRoster) RatingsOf(ctx context.Context, technicianID string) ([]model.PerformanceRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ratings := r.ratings[technicianID]
	out := make([]model.PerformanceRating, len(ratings))
	copy(out, ratings)
	return out, nil
}
