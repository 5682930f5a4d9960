package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrGoalNotFound indicates that no goal with the requested id exists
	// in the store. Missing steps are not errors; see Result.Changed.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrValidation indicates input rejected before any tree was touched.
	ErrValidation = errors.New("invalid input")

	// ErrPersist indicates that the store refused a new goal value. The
	// previously committed value stays authoritative.
	ErrPersist = errors.New("persist goal")

	// ErrRollback indicates that a multi-goal write failed part way and
	// restoring an already written goal failed too. The store may then
	// hold a mix of old and new values.
	ErrRollback = errors.New("rollback goal")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
