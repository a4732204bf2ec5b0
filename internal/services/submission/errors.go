package submission

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no submission matches the given id or reference code
	ErrNotFound = errors.New("submission not found")

	// ErrAlreadyProcessed is returned when a transition is attempted on a
	// submission that is no longer pending, including the case where a
	// concurrent review won the race
	ErrAlreadyProcessed = errors.New("submission already processed")

	// ErrStorageUnavailable wraps storage-level failures that the caller may retry
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports a missing or malformed field at creation time
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DuplicateEmailError is returned when a submission already exists for the
// email. It carries the existing reference code so callers can recover.
type DuplicateEmailError struct {
	Email               string
	ExistingReferenceID string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("email %s already registered under %s", e.Email, e.ExistingReferenceID)
}
