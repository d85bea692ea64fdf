package ir

import (
	"errors"
	"fmt"
)

// GraphError represents a failure detected while wiring or evaluating the graph.
//
// Graph errors include:
//   - Unset signal: a read of a signal with no constant, function or plug
//   - Dimension mismatch: vectors whose sizes cannot be reconciled
//   - Unresolved reference: a name that is not in the pool
//   - Cycle detection: a signal re-entered while it is being evaluated
//
// All graph errors are fail-fast and non-retryable. They signal a defect in
// the graph wiring, never a transient condition.
type GraphError struct {
	// Code identifies the error category.
	Code GraphErrorCode

	// Message is a human-readable description.
	Message string

	// Entity names the entity the error was raised for, if any.
	Entity string

	// Signal names the signal the error was raised for, if any.
	Signal string

	// Time is the evaluation time, or NoTime outside evaluation.
	Time Time
}

// GraphErrorCode categorizes graph errors.
type GraphErrorCode string

const (
	// ErrCodeUnsetSignal indicates a read of an unconfigured signal.
	ErrCodeUnsetSignal GraphErrorCode = "UNSET_SIGNAL"

	// ErrCodeDimensionMismatch indicates incompatible vector or matrix sizes.
	ErrCodeDimensionMismatch GraphErrorCode = "DIMENSION_MISMATCH"

	// ErrCodeUnresolvedReference indicates a name lookup failed.
	ErrCodeUnresolvedReference GraphErrorCode = "UNRESOLVED_REFERENCE"

	// ErrCodeCycleDetected indicates a signal depends on itself.
	ErrCodeCycleDetected GraphErrorCode = "CYCLE_DETECTED"

	// ErrCodeTypeMismatch indicates a plug or set with the wrong value type.
	ErrCodeTypeMismatch GraphErrorCode = "TYPE_MISMATCH"

	// ErrCodeDuplicateEntity indicates a name is already registered.
	ErrCodeDuplicateEntity GraphErrorCode = "DUPLICATE_ENTITY"

	// ErrCodeUnknownClass indicates no constructor for an entity class.
	ErrCodeUnknownClass GraphErrorCode = "UNKNOWN_CLASS"

	// ErrCodeUnknownCommand indicates an entity has no such command.
	ErrCodeUnknownCommand GraphErrorCode = "UNKNOWN_COMMAND"
)

// Error implements the error interface.
func (e *GraphError) Error() string {
	where := e.Entity
	if e.Signal != "" {
		if where != "" {
			where += "."
		}
		where += e.Signal
	}
	switch {
	case where != "" && e.Time != NoTime:
		return fmt.Sprintf("%s: %s (at=%s, t=%d)", e.Code, e.Message, where, e.Time)
	case where != "":
		return fmt.Sprintf("%s: %s (at=%s)", e.Code, e.Message, where)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// ErrorCode returns the code of the first GraphError in err's chain,
// or the empty code if there is none.
func ErrorCode(err error) GraphErrorCode {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// IsUnsetSignal returns true if err is an unset-signal error.
// Uses errors.As to handle wrapped errors.
func IsUnsetSignal(err error) bool {
	return ErrorCode(err) == ErrCodeUnsetSignal
}

// IsDimensionMismatch returns true if err is a dimension-mismatch error.
func IsDimensionMismatch(err error) bool {
	return ErrorCode(err) == ErrCodeDimensionMismatch
}

// IsUnresolvedReference returns true if err is an unresolved-reference error.
func IsUnresolvedReference(err error) bool {
	return ErrorCode(err) == ErrCodeUnresolvedReference
}

// IsCycleError returns true if err is a cycle-detection error.
func IsCycleError(err error) bool {
	return ErrorCode(err) == ErrCodeCycleDetected
}

// NewUnsetSignalError creates a GraphError for a read of an unset signal.
func NewUnsetSignalError(entity, signal string, t Time) *GraphError {
	return &GraphError{
		Code:    ErrCodeUnsetSignal,
		Message: "signal has no constant, function or plug",
		Entity:  entity,
		Signal:  signal,
		Time:    t,
	}
}

// NewCycleError creates a GraphError for a re-entrant evaluation.
func NewCycleError(entity, signal string, t Time) *GraphError {
	return &GraphError{
		Code:    ErrCodeCycleDetected,
		Message: "signal re-entered while being evaluated",
		Entity:  entity,
		Signal:  signal,
		Time:    t,
	}
}

// NewDimensionError creates a GraphError for incompatible sizes.
func NewDimensionError(entity string, t Time, format string, args ...any) *GraphError {
	return &GraphError{
		Code:    ErrCodeDimensionMismatch,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		Time:    t,
	}
}

// NewUnresolvedError creates a GraphError for a failed name lookup.
func NewUnresolvedError(name, what string) *GraphError {
	return &GraphError{
		Code:    ErrCodeUnresolvedReference,
		Message: fmt.Sprintf("no %s named %q", what, name),
		Time:    NoTime,
	}
}

// NewTypeError creates a GraphError for a value or plug of the wrong type.
func NewTypeError(entity, signal string, format string, args ...any) *GraphError {
	return &GraphError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
		Signal:  signal,
		Time:    NoTime,
	}
}
