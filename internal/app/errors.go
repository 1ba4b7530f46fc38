package app

import "errors"

// Sentinel kinds for assignment errors. All recoverable conditions are
// typed so callers can branch with errors.Is.
var (
	// ErrNoEligibleCandidates means the availability filter yielded an
	// empty set; the caller decides the next step, e.g. another date.
	ErrNoEligibleCandidates = errors.New("no eligible candidates")

	// ErrAssignmentExhausted means every ranked candidate lost its
	// capacity race; surfaced as a scheduling conflict.
	ErrAssignmentExhausted = errors.New("assignment exhausted")

	// ErrInvalidRequest covers caller errors such as a non-positive
	// duration.
	ErrInvalidRequest = errors.New("invalid assignment request")

	// ErrMissingProvider and ErrMissingLedger are startup wiring errors.
	ErrMissingProvider = errors.New("missing data provider")
	ErrMissingLedger   = errors.New("missing capacity ledger")
)
