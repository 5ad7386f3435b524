package model

import "errors"

// Outcomes the caller is expected to handle. Each one is returned wrapped or
// bare and must be matched with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrEventFull         = errors.New("event is full")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrAlreadyCancelled  = errors.New("registration is already cancelled")
	ErrCapacityTooLow    = errors.New("capacity cannot be lower than current seat count")
	ErrTransientConflict = errors.New("transient conflict, retry the request")
	ErrValidation        = errors.New("validation error")
	ErrInvalidID         = errors.New("invalid id")
)

// ErrConcurrentUpdate is raised by stores when a unit of work lost a race
// (serialization failure, deadlock, busy database). The ledger retries it.
var ErrConcurrentUpdate = errors.New("concurrent update")
