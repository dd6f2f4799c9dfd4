package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrUploadNotFound = errors.New("upload not found")
	ErrTokenNotFound  = errors.New("claim token not found")

	// ErrUnauthenticated is returned when no verified identity is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrStaleStatus is returned when a conditional status update matched no
	// row because the job moved on between read and commit.
	ErrStaleStatus = errors.New("job status changed concurrently")

	// ErrShortCodeCollision is returned when a generated short code already
	// exists; issuance retries with a fresh code.
	ErrShortCodeCollision = errors.New("short code already in use")
)

// Claim failures surfaced by the assignment coordinator.
var (
	// ErrInvalidToken covers missing, expired, and already-consumed tokens
	// alike; callers wanting a reason use the read-only inspection first.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrTokenJobMismatch is returned when a token issued for one job is
	// presented against another job's claim endpoint.
	ErrTokenJobMismatch = errors.New("token was issued for a different job")

	// ErrJobNotAvailable is returned when the job left OPEN before the claim
	// could commit.
	ErrJobNotAvailable = errors.New("job is not available for claiming")

	// ErrAlreadyAssigned is returned when the assignment uniqueness constraint
	// rejects a second assignment for the same job.
	ErrAlreadyAssigned = errors.New("job is already assigned")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries a structured field-level error list. Malformed input
// is always a recoverable, typed outcome, never a panic.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// AuthorizationError means the identity is verified but policy denies the
// action. The message deliberately omits job state details.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// StateConflictError means a transition or claim was rejected by the lifecycle
// rules. Reason echoes the specific rule violated.
type StateConflictError struct {
	Reason string
}

func (e *StateConflictError) Error() string {
	return e.Reason
}
