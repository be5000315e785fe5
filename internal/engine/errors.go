package engine

import "errors"

var (
	// ErrValidation rejects a caller request without any state change: bad
	// or inactive plan match, blacklisted participant, concurrent-lease cap
	// exceeded, beneficiary already holding an unexpired freelock.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced lease, creditor or plan as absent. At
	// expiry time it is swallowed as a no-op; everywhere else it surfaces.
	ErrNotFound = errors.New("not found")

	// ErrInvariant marks states the engine must never reach in correct
	// operation: no qualified creditor, an income split exceeding the
	// price, a duplicate freelock registration. The whole call aborts.
	ErrInvariant = errors.New("invariant violation")

	// ErrUnauthorized marks a caller lacking rights for an administrative
	// action.
	ErrUnauthorized = errors.New("unauthorized")
)
