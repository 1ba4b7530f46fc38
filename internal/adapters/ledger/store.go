// Package ledger is the authoritative record of technician daily capacity.
// It owns every mutation of booked minutes; all other components read.
package ledger

import (
	"context"

	"github.com/okian/pitcrew/internal/domain/model"
)

// Ledger provides schedule lookups plus the atomic conditional
// commit/release primitive used by assignment flows.
type Ledger interface {
	// EntryFor returns the schedule entry for a technician at a center on
	// a date. Returns ErrEntryNotFound when none exists.
	EntryFor(ctx context.Context, technicianID, centerID, workDate string) (model.ScheduleEntry, error)

	// Commit atomically increments booked minutes by durationMin only if
	// the result stays within max capacity. A lost race returns
	// ErrCapacityExceeded and leaves the entry untouched.
	Commit(ctx context.Context, entryID string, durationMin int) (model.ScheduleEntry, error)

	// Release decrements booked minutes as compensation for a cancelled
	// commit. Returns ErrInvalidRelease when the decrement would drive
	// booked minutes below zero.
	Release(ctx context.Context, entryID string, durationMin int) (model.ScheduleEntry, error)

	// Count returns the number of schedule entries tracked.
	Count(ctx context.Context) int
}

// Stats is a point-in-time snapshot of ledger occupancy, used by the
// metrics updater and operational stats.
type Stats struct {
	Entries        int
	TotalMaxMin    int
	TotalBookedMin int
}

// Utilization returns booked/max across all entries, in [0,1].
func (s Stats) Utilization() float64 {
	if s.TotalMaxMin <= 0 {
		return 0
	}
	return float64(s.TotalBookedMin) / float64(s.TotalMaxMin)
}
