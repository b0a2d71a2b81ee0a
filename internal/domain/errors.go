package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	ErrInvalidPlan        = errors.New("invalid plan")
	ErrAlreadyStarted     = errors.New("session already started")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrSessionNotTerminal = errors.New("session is not terminal")
	ErrValidation         = errors.New("validation failed")
)

// Reasons carried by InvalidPlanError.
const (
	ReasonEmpty              = "empty"
	ReasonInvalidField       = "invalid_field"
	ReasonDuplicateKey       = "duplicate_key"
	ReasonUnknownDependency  = "unknown_dependency"
	ReasonCycle              = "cycle"
	ReasonMissingTemperature = "missing_temperature"
	ReasonMissingDuration    = "missing_duration"
	ReasonUnknownTrigger     = "unknown_trigger"
)

// InvalidPlanError reports why a raw plan was rejected.
type InvalidPlanError struct {
	Reason string
	Detail string
}

func (e *InvalidPlanError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidPlan, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidPlan, e.Reason, e.Detail)
}

func (e *InvalidPlanError) Unwrap() error { return ErrInvalidPlan }

// TransitionError reports an operation the session cannot accept in its
// current state. Kind is one of ErrAlreadyStarted, ErrInvalidTransition or
// ErrSessionNotTerminal.
type TransitionError struct {
	Kind   error
	Op     string
	Status SessionStatus
	Msg    string
}

func (e *TransitionError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s (status %s)", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s (status %s)", e.Op, e.Kind, e.Msg, e.Status)
}

func (e *TransitionError) Unwrap() error { return e.Kind }

// ValidationError reports an out-of-range user-supplied value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
