package entities

import "errors"

// Domain errors shared across services and the API layer. Storage errors
// are wrapped with context instead; these sentinels mark business-rule
// outcomes that clients can react to programmatically.
var (
	// ErrNotFound marks an absent resource or merge source.
	ErrNotFound = errors.New("not found")

	// ErrStale marks a conditional write whose precondition no longer
	// holds: either the If-Match tag differed, or the row changed between
	// read and write and the compare-and-swap matched zero rows.
	ErrStale = errors.New("precondition failed")

	// ErrNoFields marks an update request that supplied no updatable
	// fields.
	ErrNoFields = errors.New("no fields to update")

	// ErrUnknownToken marks a claim on a token that was never issued.
	ErrUnknownToken = errors.New("unknown token")

	// ErrTokenRace marks a claim that lost the used=false -> true race to
	// a concurrent caller before a response was cached.
	ErrTokenRace = errors.New("token already claimed")
)
