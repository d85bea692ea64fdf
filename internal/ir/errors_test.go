package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphError_Message(t *testing.T) {
	err := NewUnsetSignalError("task", "selec", 3)
	assert.Equal(t, "UNSET_SIGNAL: signal has no constant, function or plug (at=task.selec, t=3)", err.Error())

	err = NewDimensionError("task", NoTime, "need %d, got %d", 3, 2)
	assert.Equal(t, "DIMENSION_MISMATCH: need 3, got 2 (at=task)", err.Error())

	err = NewUnresolvedError("ghost", "feature")
	assert.Equal(t, `UNRESOLVED_REFERENCE: no feature named "ghost"`, err.Error())
}

func TestGraphError_WrappedHelpers(t *testing.T) {
	wrapped := fmt.Errorf("step 4: %w", NewCycleError("a", "sout", 4))

	assert.True(t, IsCycleError(wrapped))
	assert.False(t, IsUnsetSignal(wrapped))
	assert.Equal(t, ErrCodeCycleDetected, ErrorCode(wrapped))
	assert.Equal(t, GraphErrorCode(""), ErrorCode(fmt.Errorf("plain")))

	assert.True(t, IsDimensionMismatch(NewDimensionError("x", 0, "bad")))
	assert.True(t, IsUnresolvedReference(NewUnresolvedError("x", "entity")))
}

func TestSignalPath(t *testing.T) {
	ent, sig, err := SignalPath("task.errordot")
	require.NoError(t, err)
	assert.Equal(t, "task", ent)
	assert.Equal(t, "errordot", sig)

	ent, sig, err = SignalPath("arm.left.sout")
	require.NoError(t, err)
	assert.Equal(t, "arm.left", ent)
	assert.Equal(t, "sout", sig)

	for _, bad := range []string{"", "task", ".sig", "task."} {
		_, _, err := SignalPath(bad)
		assert.Error(t, err, bad)
	}

	assert.Equal(t, "a.b", JoinSignalPath("a", "b"))
}
