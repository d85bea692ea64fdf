package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigflow/internal/ir"
)

// countingFunc returns a compute function producing t*scale and a pointer
// to its call counter.
func countingFunc(scale float64) (ComputeFunc[float64], *int) {
	calls := 0
	return func(_ float64, t ir.Time) (float64, error) {
		calls++
		return float64(t) * scale, nil
	}, &calls
}

func TestSignal_Memoization(t *testing.T) {
	fn, calls := countingFunc(2)
	s := NewSignal("out", fn)

	for i := 0; i < 5; i++ {
		v, err := s.Access(3)
		require.NoError(t, err)
		assert.Equal(t, 6.0, v)
	}
	assert.Equal(t, 1, *calls, "compute function runs once per time")
	assert.Equal(t, ir.Time(3), s.Time())

	v, err := s.Access(4)
	require.NoError(t, err)
	assert.Equal(t, 8.0, v)
	assert.Equal(t, 2, *calls, "new time recomputes")
}

func TestSignal_Unset(t *testing.T) {
	s := NewInput[ir.Vector]("errorIN")
	s.Attach("task", nil)

	_, err := s.Access(0)
	require.Error(t, err)
	assert.True(t, ir.IsUnsetSignal(err))
	assert.Contains(t, err.Error(), "task.errorIN")
	assert.False(t, s.IsPlugged())
}

func TestSignal_ConstantIgnoresFunction(t *testing.T) {
	fn, calls := countingFunc(1)
	s := NewSignal("out", fn)
	s.Set(42)

	for _, tm := range []ir.Time{0, 1, 100} {
		v, err := s.Access(tm)
		require.NoError(t, err)
		assert.Equal(t, 42.0, v)
	}
	assert.Equal(t, 0, *calls)
	assert.True(t, s.IsConstant())
	assert.False(t, s.IsPlugged(), "a constant is not plugged")

	s.SetFunction(fn)
	v, err := s.Access(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)
	assert.True(t, s.IsPlugged())
}

func TestSignal_DependencyPull(t *testing.T) {
	var order []string
	a := NewSignal("a", func(_ int, t ir.Time) (int, error) {
		order = append(order, "a")
		return int(t), nil
	})
	b := NewSignal("b", func(_ int, t ir.Time) (int, error) {
		order = append(order, "b")
		av, err := a.Access(t)
		return av + 1, err
	}, a)
	c := NewSignal("c", func(_ int, t ir.Time) (int, error) {
		order = append(order, "c")
		av, err := a.Access(t)
		if err != nil {
			return 0, err
		}
		bv, err := b.Access(t)
		return av + bv, err
	}, a, b)

	v, err := c.Access(10)
	require.NoError(t, err)
	assert.Equal(t, 21, v)
	assert.Equal(t, []string{"c", "a", "b"}, order, "a evaluated once, before its dependents read it")

	require.Len(t, c.Dependencies(), 2)
	assert.Equal(t, "a", c.Dependencies()[0].Name())
}

func TestSignal_CycleDetected(t *testing.T) {
	var b *Signal[int]
	a := NewSignal("a", func(_ int, t ir.Time) (int, error) {
		return b.Access(t)
	})
	b = NewSignal("b", func(_ int, t ir.Time) (int, error) {
		return a.Access(t)
	})
	a.Attach("loop", nil)
	b.Attach("loop", nil)

	_, err := a.Access(1)
	require.Error(t, err)
	assert.True(t, ir.IsCycleError(err))
	assert.Contains(t, err.Error(), "loop.a")

	// The in-progress marker is cleared after the failure.
	b.Set(7)
	v, err := a.Access(1)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSignal_SelfPlugIsCycle(t *testing.T) {
	s := NewInput[int]("x")
	s.Plug(s)
	_, err := s.Access(0)
	assert.True(t, ir.IsCycleError(err))
}

func TestSignal_FailureLeavesCacheUntouched(t *testing.T) {
	fail := false
	s := NewSignal("out", func(_ int, t ir.Time) (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return int(t), nil
	})

	v, err := s.Access(1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	fail = true
	_, err = s.Access(2)
	require.Error(t, err)
	assert.Equal(t, ir.Time(1), s.Time())
	assert.Equal(t, 1, s.Value())

	fail = false
	v, err = s.Access(2)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestSignal_RecomputeAndInvalidate(t *testing.T) {
	fn, calls := countingFunc(1)
	s := NewSignal("out", fn)

	_, _ = s.Access(1)
	_, _ = s.Recompute(1)
	assert.Equal(t, 2, *calls)

	s.Invalidate()
	assert.Equal(t, ir.NoTime, s.Time())
	_, _ = s.Access(1)
	assert.Equal(t, 3, *calls)
}

func TestSignal_PlugForwards(t *testing.T) {
	src := NewInput[ir.Vector]("sout")
	src.Set(ir.Vector{1, 2})

	dst := NewInput[ir.Vector]("errordotIN")
	dst.Plug(src)
	assert.True(t, dst.IsPlugged())
	assert.Equal(t, src, dst.Source())

	v, err := dst.Access(0)
	require.NoError(t, err)
	assert.Equal(t, ir.Vector{1, 2}, v)

	// Plugged signals read through on every access.
	src.Set(ir.Vector{3})
	v, err = dst.Access(0)
	require.NoError(t, err)
	assert.Equal(t, ir.Vector{3}, v)

	dst.Unplug()
	assert.False(t, dst.IsPlugged())
	assert.Nil(t, dst.Source())
	_, err = dst.Access(0)
	assert.True(t, ir.IsUnsetSignal(err))
}

func TestSignal_UnplugFallsBackToFunction(t *testing.T) {
	fn, _ := countingFunc(1)
	s := NewSignal("out", fn)
	src := NewInput[float64]("c")
	src.Set(9)

	s.Plug(src)
	v, _ := s.Access(2)
	assert.Equal(t, 9.0, v)

	s.Unplug()
	v, _ = s.Access(2)
	assert.Equal(t, 2.0, v)
}

func TestSignal_PlugAnyTypeMismatch(t *testing.T) {
	vec := NewInput[ir.Vector]("sout")
	vec.Attach("src", nil)
	flags := NewInput[ir.Flags]("selec")
	flags.Attach("task", nil)

	err := flags.PlugAny(vec)
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeTypeMismatch, ir.ErrorCode(err))
	assert.Contains(t, err.Error(), "src.sout (Vector)")
	assert.Contains(t, err.Error(), "task.selec (Flags)")

	other := NewInput[ir.Flags]("sout")
	require.NoError(t, flags.PlugAny(other))
	assert.True(t, flags.IsPlugged())
}

func TestSignal_SetValue(t *testing.T) {
	s := NewInput[ir.Flags]("selec")
	require.NoError(t, s.SetValue("1010"))

	v, err := s.ValueAt(0)
	require.NoError(t, err)
	assert.Equal(t, "1010", v.(ir.Flags).String())

	err = s.SetValue(3.5)
	assert.Equal(t, ir.ErrCodeTypeMismatch, ir.ErrorCode(err))
}

func TestSignal_PathAndTypeName(t *testing.T) {
	s := NewInput[int]("dim")
	assert.Equal(t, "dim", s.Path())
	s.Attach("task", nil)
	assert.Equal(t, "task.dim", s.Path())
	assert.Equal(t, "task", s.Owner())
	assert.Equal(t, "int", s.TypeName())
	assert.Equal(t, "Vector", NewInput[ir.Vector]("v").TypeName())
}

type recordingObserver struct {
	hits, computes, errs []string
}

func (r *recordingObserver) OnCacheHit(path string, _ ir.Time) { r.hits = append(r.hits, path) }
func (r *recordingObserver) OnCompute(path string, _ ir.Time, _ time.Duration) {
	r.computes = append(r.computes, path)
}
func (r *recordingObserver) OnError(path string, _ ir.Time, _ error) { r.errs = append(r.errs, path) }

func TestSignal_Observer(t *testing.T) {
	obs := &recordingObserver{}
	fn, _ := countingFunc(1)
	s := NewSignal("out", fn)
	s.Attach("e", obs)
	in := NewInput[int]("in")
	in.Attach("e", obs)

	_, _ = s.Access(1)
	_, _ = s.Access(1)
	_, _ = in.Access(1)

	assert.Equal(t, []string{"e.out"}, obs.computes)
	assert.Equal(t, []string{"e.out"}, obs.hits)
	assert.Equal(t, []string{"e.in"}, obs.errs)
}

func TestSignal_SetDropsPlug(t *testing.T) {
	src := NewInput[float64]("c")
	src.Set(9)

	s := NewInput[float64]("in")
	s.Plug(src)
	s.Set(4)

	assert.False(t, s.IsPlugged())
	assert.True(t, s.IsConstant())
	assert.Nil(t, s.Source())

	v, err := s.Access(0)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestSignal_FirstReadAtNoTimeComputes(t *testing.T) {
	fn, calls := countingFunc(1)
	s := NewSignal("out", fn)

	v, err := s.Access(ir.NoTime)
	require.NoError(t, err)
	assert.Equal(t, float64(ir.NoTime), v)
	assert.Equal(t, 1, *calls)

	_, err = s.Access(ir.NoTime)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls, "second read at the same time is cached")

	s.Invalidate()
	_, _ = s.Access(ir.NoTime)
	assert.Equal(t, 2, *calls)
}

func TestSignal_PluggedForwardIsNotACompute(t *testing.T) {
	obs := &recordingObserver{}
	fn, calls := countingFunc(1)
	src := NewSignal("sout", fn)
	src.Attach("vel", obs)
	dst := NewInput[float64]("errordotIN")
	dst.Attach("goal", obs)
	dst.Plug(src)

	for i := 0; i < 3; i++ {
		v, err := dst.Access(2)
		require.NoError(t, err)
		assert.Equal(t, 2.0, v)
	}

	assert.Equal(t, 1, *calls)
	assert.Equal(t, []string{"vel.sout"}, obs.computes)
	assert.Equal(t, []string{"goal.errordotIN", "vel.sout", "goal.errordotIN", "vel.sout", "goal.errordotIN"}, obs.hits)
}
