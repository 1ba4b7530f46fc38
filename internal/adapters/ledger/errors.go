package ledger

import "errors"

// Sentinel kinds for capacity ledger errors.
var (
	ErrEntryNotFound    = errors.New("schedule entry not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidRelease   = errors.New("release exceeds booked minutes")
)
