package services

import (
	"errors"
	"fmt"
)

// ErrCommitInProgress is returned when a review session is edited or committed again
// while a commit is still waiting for the persistence service.
var ErrCommitInProgress = errors.New("review commit already in progress")

// ValidationError reports bad numeric input to the pricing primitives
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConfigurationError reports a malformed bracket table or resolver input.
// It is fatal to the caller and must not be retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "tax bracket configuration: " + e.Reason
}

// CommitFailure wraps a failed review batch save. Pending edits are kept and the
// same payload can be sent again.
type CommitFailure struct {
	Items int
	Err   error
}

func (e *CommitFailure) Error() string {
	return fmt.Sprintf("failed to commit %d review items: %v", e.Items, e.Err)
}

func (e *CommitFailure) Unwrap() error {
	return e.Err
}
