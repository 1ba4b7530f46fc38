package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/okian/pitcrew/internal/domain/model"
	"github.com/okian/pitcrew/pkg/metrics"
)

// In-memory Ledger implementation.
//
// Entries live in a map keyed by entry id with a secondary
// technician/center/date index for lookups. A single store mutex
// serializes commits and releases, making the conditional update one
// atomic step: booked minutes either move fully or not at all.

// Default ledger configuration constants.
const (
	defaultMetricsInterval = 5 * time.Second
)

// entryKey indexes entries by the lookup triple used at request time.
type entryKey struct {
	technicianID string
	centerID     string
	workDate     string
}

// MemoryLedger implements Ledger over process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	byID    map[string]model.ScheduleEntry
	byOwner map[entryKey]string // lookup triple -> entry id

	metricsInterval time.Duration

	// Background metrics updater management
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewMemoryLedger constructs a ledger with configuration options.
func NewMemoryLedger(ctx context.Context, opts ...Option) *MemoryLedger {
	l := &MemoryLedger{
		byID:            make(map[string]model.ScheduleEntry),
		byOwner:         make(map[entryKey]string),
		metricsInterval: defaultMetricsInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	l.stopChan = make(chan struct{})
	l.startMetricsUpdater(ctx)

	return l
}

// Load replaces or inserts schedule entries, typically at startup or when
// schedule generation publishes a new day. Booked minutes of entries
// already present are preserved so in-flight commitments survive reloads.
func (l *MemoryLedger) Load(ctx context.Context, entries []model.ScheduleEntry) {
	l.mu.Lock()
	for _, e := range entries {
		if existing, ok := l.byID[e.ID]; ok {
			e.BookedMin = existing.BookedMin
		}
		if e.BookedMin < 0 {
			e.BookedMin = 0
		}
		if e.BookedMin > e.MaxCapacityMin {
			e.BookedMin = e.MaxCapacityMin
		}
		l.byID[e.ID] = e
		l.byOwner[entryKey{e.TechnicianID, e.CenterID, e.WorkDate}] = e.ID
	}
	count := len(l.byID)
	l.mu.Unlock()

	metrics.UpdateLedgerEntries(count)
}

// EntryFor returns the entry for a technician/center/date triple.
func (l *MemoryLedger) EntryFor(ctx context.Context, technicianID, centerID, workDate string) (model.ScheduleEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.byOwner[entryKey{technicianID, centerID, workDate}]
	if !ok {
		return model.ScheduleEntry{}, ErrEntryNotFound
	}
	return l.byID[id], nil
}

// Commit implements the conditional increment: booked + d <= max or the
// commit fails with no side effects. The losing side of a race gets
// ErrCapacityExceeded, never a partial update.
func (l *MemoryLedger) Commit(ctx context.Context, entryID string, durationMin int) (model.ScheduleEntry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLedgerCommitLatency(float64(time.Since(start).Milliseconds()))
	}()

	if durationMin <= 0 {
		return model.ScheduleEntry{}, ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byID[entryID]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "entry_not_found")
		return model.ScheduleEntry{}, ErrEntryNotFound
	}
	if e.BookedMin+durationMin > e.MaxCapacityMin {
		metrics.RecordLedgerCommitConflict()
		return model.ScheduleEntry{}, ErrCapacityExceeded
	}

	e.BookedMin += durationMin
	l.byID[entryID] = e

	metrics.RecordLedgerCommit()
	return e, nil
}

// Release implements the compensating decrement for cancellations after a
// successful commit.
func (l *MemoryLedger) Release(ctx context.Context, entryID string, durationMin int) (model.ScheduleEntry, error) {
	if durationMin <= 0 {
		return model.ScheduleEntry{}, ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byID[entryID]
	if !ok {
		metrics.RecordErrorByComponent("ledger", "entry_not_found")
		return model.ScheduleEntry{}, ErrEntryNotFound
	}
	if durationMin > e.BookedMin {
		metrics.RecordErrorByComponent("ledger", "invalid_release")
		return model.ScheduleEntry{}, ErrInvalidRelease
	}

	e.BookedMin -= durationMin
	l.byID[entryID] = e

	metrics.RecordLedgerRelease()
	return e, nil
}

// Count returns the number of schedule entries tracked.
func (l *MemoryLedger) Count(ctx context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Stats returns a point-in-time occupancy snapshot.
func (l *MemoryLedger) Stats(ctx context.Context) Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{Entries: len(l.byID)}
	for _, e := range l.byID {
		s.TotalMaxMin += e.MaxCapacityMin
		s.TotalBookedMin += e.BookedMin
	}
	return s
}

// Close stops the background metrics updater.
func (l *MemoryLedger) Close() error {
	select {
	case <-l.stopChan:
		// Channel already closed
	default:
		close(l.stopChan)
	}
	l.wg.Wait()
	return nil
}

// startMetricsUpdater publishes occupancy gauges at the configured
// interval.
func (l *MemoryLedger) startMetricsUpdater(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		ticker := time.NewTicker(l.metricsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.stopChan:
				return
			case <-ticker.C:
				l.updateMetrics(ctx)
			}
		}
	}()
}

// updateMetrics publishes all ledger-level gauges.
func (l *MemoryLedger) updateMetrics(ctx context.Context) {
	s := l.Stats(ctx)
	metrics.UpdateLedgerEntries(s.Entries)
	metrics.UpdateLedgerBookedMinutes(s.TotalBookedMin)
	metrics.UpdateLedgerUtilization(s.Utilization())
}
