package services

import "errors"

// Workflow error taxonomy. Handlers map these to HTTP statuses; none of
// them carry partial side effects.
var (
	// ErrNotFound: unknown assignment or lead id, or an assignment that
	// does not belong to the given lead.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: a contractor acting on an assignment that is not its own.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState: an operation against an assignment or lead in a
	// state that does not permit it (e.g. quoting before accepting, or
	// accepting after expiry).
	ErrInvalidState = errors.New("invalid state transition")
)
