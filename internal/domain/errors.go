package domain

import "errors"

// Domain errors
var (
	// ErrNotFound means the event (or a document attached to it) does not exist
	ErrNotFound = errors.New("event not found")
	// ErrAlreadyExists means an event with the same id is already stored
	ErrAlreadyExists = errors.New("event already exists")
	// ErrNoActiveEvent means an operation needed a loaded event and none was loaded
	ErrNoActiveEvent = errors.New("no active event")
	// ErrInvalidEvent means an event failed validation
	ErrInvalidEvent = errors.New("invalid event")
	// ErrInvalidPatch means a patch carried an out-of-range value
	ErrInvalidPatch = errors.New("invalid event patch")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEvent) || errors.Is(err, ErrInvalidPatch)
}
