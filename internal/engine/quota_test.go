package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaEnforcer_WithinLimit(t *testing.T) {
	q := NewQuotaEnforcer(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, q.Check("run-1"), "step %d should be allowed", i+1)
	}
	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.MaxSteps())
}

func TestQuotaEnforcer_ExceedsLimit(t *testing.T) {
	q := NewQuotaEnforcer(5)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("run-1"))
	}

	err := q.Check("run-1")
	require.Error(t, err)

	var stepsErr *StepsExceededError
	require.ErrorAs(t, err, &stepsErr)
	assert.Equal(t, "run-1", stepsErr.RunToken)
	assert.Equal(t, 6, stepsErr.Steps)
	assert.Equal(t, 5, stepsErr.Limit)
	assert.Equal(t, "run run-1 exceeded max steps quota: 6 steps > 5 limit", err.Error())
}

func TestQuotaEnforcer_Reset(t *testing.T) {
	q := NewQuotaEnforcer(1)
	require.NoError(t, q.Check("run-1"))
	q.Reset()
	assert.Equal(t, 0, q.Current())
	assert.NoError(t, q.Check("run-1"))
}

func TestIsStepsExceededError_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", &StepsExceededError{RunToken: "r", Steps: 2, Limit: 1})
	assert.True(t, IsStepsExceededError(err))
	assert.False(t, IsStepsExceededError(fmt.Errorf("plain")))
}
