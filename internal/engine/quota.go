package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts the steps of one run and enforces a maximum.
//
// Each run has its own QuotaEnforcer. The quota is checked before every
// step, so a run asking for more steps than allowed stops with
// StepsExceededError after the last allowed step has been recorded.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
func (q *QuotaEnforcer) Check(runToken string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			RunToken: runToken,
			Steps:    q.current,
			Limit:    q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds the max steps quota.
type StepsExceededError struct {
	RunToken string // The run that exceeded the quota
	Steps    int    // Number of steps attempted
	Limit    int    // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max steps quota: %d steps > %d limit",
		e.RunToken, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
