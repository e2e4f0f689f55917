package cases

import (
	"errors"
	"fmt"

	"emergency-ops-backend/internal/model"
)

var (
	// ErrCaseNotFound is returned when no case exists with the given id.
	ErrCaseNotFound = errors.New("case not found")
	// ErrCaseTerminal is returned when a discharged or transferred case
	// is updated.
	ErrCaseTerminal = errors.New("case is in a terminal state")
	// ErrStatusNotUpdatable is returned when an update tries to write
	// status, bed or discharge fields directly instead of going through
	// Admit or TransitionTo.
	ErrStatusNotUpdatable = errors.New("status cannot be changed through update")
)

// ValidationError reports a rejected intake or update field. Nothing is
// mutated when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a state change outside the transition
// table.
type InvalidTransitionError struct {
	From model.CaseStatus
	To   model.CaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
