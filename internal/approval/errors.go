package approval

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for bad or missing input the caller can correct
	ErrValidation = errors.New("validation failed")

	// ErrNoApproverFound is returned when no profile in the org chain can approve a request
	ErrNoApproverFound = errors.New("no approver found")

	// ErrAlreadyResolved is returned when a request is no longer pending
	ErrAlreadyResolved = errors.New("approval request already resolved")

	// ErrUnauthorized is returned when an action token does not match the request
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a request or org record does not exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when an authenticated caller may not act on a request
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a submission duplicates existing state
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned for a transition the state table does not allow
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotificationFailed wraps email delivery failures. Never fatal to a request.
	ErrNotificationFailed = errors.New("notification failed")

	// ErrMaterializationFailed wraps failures creating the post-approval calendar entry
	ErrMaterializationFailed = errors.New("materialization failed")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a field-level validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is reports ErrValidation as the sentinel for every ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
