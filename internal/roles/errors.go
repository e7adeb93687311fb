package roles

import (
	"errors"
	"fmt"
)

// Domain errors for the roles package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, roles.ErrValidation) {
//	    // reject the request
//	}
var (
	// ErrValidation is wrapped by every validation failure.
	ErrValidation = errors.New("roles: validation failed")

	// ErrAssignmentNotFound is returned when deleting a role that does not exist.
	ErrAssignmentNotFound = errors.New("roles: assignment not found")
)

// ValidationError names the offending field of a rejected role input.
// It wraps ErrValidation so callers can classify with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("roles: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
