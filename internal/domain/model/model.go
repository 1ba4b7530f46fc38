// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Proficiency is a technician's level for a single skill.
type Proficiency int

// Proficiency levels, ordered so higher means more capable.
const (
	Beginner Proficiency = iota + 1
	Intermediate
	Expert
)

// String returns the human-readable proficiency name.
func (p Proficiency) String() string {
	switch p {
	case Beginner:
		return "beginner"
	case Intermediate:
		return "intermediate"
	case Expert:
		return "expert"
	}
	return "unknown"
}

// NormalizeSkillID canonicalizes a raw skill name into an interned lookup
// key: lowercased, trimmed, with whitespace and underscores collapsed to a
// single hyphen. Resolved once at data-load time so matching never depends
// on the casing or spacing of seed data.
func NormalizeSkillID(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '_' || r == '-'
	})
	return strings.Join(fields, "-")
}

// Technician is a roster member. Created and deactivated by HR processes;
// read-only to this service.
type Technician struct {
	ID        string    // stable technician identifier
	Name      string    // display name
	CenterIDs []string  // service centers the technician works at
	Active    bool      // inactive technicians are never assignable
	HiredAt   time.Time // informational only
}

// WorksAt reports whether the technician is assigned to the given center.
func (t Technician) WorksAt(centerID string) bool {
	for _, id := range t.CenterIDs {
		if id == centerID {
			return true
		}
	}
	return false
}

// SkillRecord links a technician to one skill. Expired or unverified
// records are down-weighted during matching, never deleted here.
type SkillRecord struct {
	TechnicianID string
	SkillID      string // normalized via NormalizeSkillID
	Level        Proficiency
	Verified     bool
	ExpiresAt    time.Time // zero value means the record never expires
}

// Expired reports whether the record has lapsed as of now.
func (r SkillRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now)
}

// ScheduleEntry is one technician's working window for a date at a center.
// Created by schedule generation; booked minutes are mutated exclusively by
// the capacity ledger.
type ScheduleEntry struct {
	ID             string
	TechnicianID   string
	CenterID       string
	WorkDate       string // YYYY-MM-DD
	StartTime      string // HH:MM, informational
	EndTime        string // HH:MM, informational
	BreakStart     string // HH:MM, informational
	BreakEnd       string // HH:MM, informational
	MaxCapacityMin int
	BookedMin      int
	Available      bool // explicit day-off / sick flag overriding capacity
}

// AvailableMin is always derived from max and booked, never stored.
func (e ScheduleEntry) AvailableMin() int {
	if e.MaxCapacityMin < e.BookedMin {
		return 0
	}
	return e.MaxCapacityMin - e.BookedMin
}

// PerformanceRating is one append-only quality data point for a technician.
type PerformanceRating struct {
	TechnicianID string
	WorkOrderID  string
	Overall      float64 // 1..5
	Recommend    bool
	RatedAt      time.Time
}

// RequiredSkill is one skill demanded by an assignment request.
type RequiredSkill struct {
	SkillID  string      // normalized via NormalizeSkillID
	MinLevel Proficiency // zero value means any level qualifies
}

// AssignmentRequest describes an incoming job needing a technician.
type AssignmentRequest struct {
	CenterID        string
	RequiredSkills  []RequiredSkill
	SkillsMandatory bool   // zero-overlap technicians are excluded, not scored low
	WorkDate        string // YYYY-MM-DD
	DurationMin     int    // estimated job duration in minutes
}

// CandidateScore holds the per-criterion breakdown for one ranked
// technician.
type CandidateScore struct {
	TechnicianID    string
	ScheduleEntryID string
	Composite       float64
	Skill           float64
	Workload        float64
	Performance     float64
	Availability    float64
	BookedMin       int // booked minutes at scoring time, used for tie-breaks
}

// AssignmentDecision is the immutable outcome of ranking: the chosen
// technician plus ordered alternates for commit-race fallback.
type AssignmentDecision struct {
	ID          string
	CenterID    string
	WorkDate    string
	DurationMin int
	Chosen      CandidateScore
	Alternates  []CandidateScore // ranked, excluding Chosen
	DecidedAt   time.Time
}

// Candidates returns the chosen technician followed by the alternates, in
// commit order.
func (d AssignmentDecision) Candidates() []CandidateScore {
	out := make([]CandidateScore, 0, 1+len(d.Alternates))
	out = append(out, d.Chosen)
	out = append(out, d.Alternates...)
	return out
}
