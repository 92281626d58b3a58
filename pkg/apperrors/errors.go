// Package apperrors defines the error taxonomy shared by services,
// repositories, and handlers.
package apperrors

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrNotOwned               = errors.New("resource not owned by user")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrModelUnavailable       = errors.New("prediction model unavailable")
)

// ValidationError reports malformed or out-of-range input. It is never
// retried and maps to a 400 at the HTTP boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvalidFieldStateError reports a field snapshot value outside its closed
// set (unknown crop, soil, region, or season) or out of numeric range.
type InvalidFieldStateError struct {
	Field string
	Value any
}

func (e *InvalidFieldStateError) Error() string {
	return fmt.Sprintf("invalid field state: %s=%v", e.Field, e.Value)
}

// InvalidWeatherError reports a non-finite weather value.
type InvalidWeatherError struct {
	Field string
	Value float64
}

func (e *InvalidWeatherError) Error() string {
	return fmt.Sprintf("invalid weather reading: %s=%v", e.Field, e.Value)
}

// DuplicateActiveScheduleError is returned when a schedule is generated for
// a field that already has a non-terminal schedule. It carries the existing
// schedule's id so the caller can redirect to it.
type DuplicateActiveScheduleError struct {
	FieldID    uuid.UUID
	ExistingID uuid.UUID
}

func (e *DuplicateActiveScheduleError) Error() string {
	return fmt.Sprintf("field %s already has an active schedule %s", e.FieldID, e.ExistingID)
}

// InvalidTransitionError reports a schedule state-machine violation. It
// carries the current status so the caller can render an actionable message.
type InvalidTransitionError struct {
	ScheduleID uuid.UUID
	Current    string
	Attempted  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("schedule %s: cannot transition from %s to %s", e.ScheduleID, e.Current, e.Attempted)
}

// PredictionError wraps a per-request inference failure. The failure is
// surfaced to the caller, never defaulted to a fabricated water amount.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}
