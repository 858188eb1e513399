package model

import (
	"errors"
	"fmt"
)

// ErrVersionNotFound is returned when a requested schedule version does not
// exist or has already been pruned from history.
var ErrVersionNotFound = errors.New("schedule version not found")

// ValidationError reports a schedule fragment that failed validation. The
// offending fragment is carried verbatim so the operator sees exactly which
// part of the document was rejected.
type ValidationError struct {
	Path     string
	Fragment any
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid schedule entry %v: %s", e.Fragment, e.Reason)
	}
	return fmt.Sprintf("invalid schedule entry at %s: %v: %s", e.Path, e.Fragment, e.Reason)
}

// Invalid builds a ValidationError for a fragment at the given path.
func Invalid(path string, fragment any, reason string) *ValidationError {
	return &ValidationError{Path: path, Fragment: fragment, Reason: reason}
}
