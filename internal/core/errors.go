package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned by the calendar when no authorization token is configured
	ErrUnauthorized = errors.New("not authorized")
	// ErrSessionNotFound is returned by session stores for unknown or expired sessions
	ErrSessionNotFound = errors.New("session not found")
)

// ServiceError represents a failed call to an external collaborator.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// InvariantError represents a violated state-model invariant. It is a programming error.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Invariant, e.Detail)
}

// IsInvariant reports whether err is or wraps an InvariantError
func IsInvariant(err error) bool {
	var target *InvariantError
	return errors.As(err, &target)
}
