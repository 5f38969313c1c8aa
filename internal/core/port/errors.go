package port

import "errors"

// Error kinds surfaced by every core operation. Adapters wrap them with
// %w for context; callers match with errors.Is and translate into
// user-facing responses. A failed mutation never leaves a partial write.
var (
	// ErrNotFound signals an unknown entity id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition signals a territory status machine violation.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNoActiveAssignment signals return/cancel/extend on a territory
	// with no open assignment.
	ErrNoActiveAssignment = errors.New("no active assignment")
	// ErrConflict signals a concurrent double-assignment or a delete of
	// a territory that is still held.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState signals an operation not permitted for the
	// campaign's open/closed state.
	ErrInvalidState = errors.New("invalid state")
	// ErrInvalidArgument signals malformed input such as an inverted
	// date range or a territory id outside the campaign set.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyReminded signals a duplicate open reminder for a
	// (territory, person) pair.
	ErrAlreadyReminded = errors.New("already reminded")
)
