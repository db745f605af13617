package errors

import "errors"

var (
	ErrNotFound = errors.New("schedule not found")

	ErrSlotNotFound = errors.New("slot not found")

	ErrInvalidID = errors.New("invalid schedule ID format")

	// ErrPreconditionFailed is returned when a guarded slot transition finds
	// the slot no longer in the expected state; the caller lost the race.
	ErrPreconditionFailed = errors.New("slot not in expected state")

	ErrLockHeld = errors.New("slot lock already held")

	ErrStartNotBeforeEnd = errors.New("start time must be before end time")
)
