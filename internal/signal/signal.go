package signal

import (
	"time"

	"github.com/roach88/sigflow/internal/ir"
)

// ComputeFunc produces a signal's value for time t.
//
// buf is the signal's previous value and may be reused as scratch space.
// The returned value becomes the cached value for t.
type ComputeFunc[T any] func(buf T, t ir.Time) (T, error)

type mode int

const (
	modeUnset mode = iota
	modeConstant
	modeFunction
	modePlugged
)

// Signal is a named, typed, time-stamped memoizing cell.
type Signal[T any] struct {
	name  string
	owner string

	value T
	stamp ir.Time
	ready bool // value holds a computation for stamp
	mode  mode

	fn   ComputeFunc[T]
	src  *Signal[T]
	deps []Any

	evaluating bool
	obs        Observer
}

// NewSignal creates an output signal computed by fn.
// deps are recorded for graph export only.
func NewSignal[T any](name string, fn ComputeFunc[T], deps ...Any) *Signal[T] {
	s := NewInput[T](name)
	s.SetFunction(fn, deps...)
	return s
}

// NewInput creates an unset input signal.
func NewInput[T any](name string) *Signal[T] {
	return &Signal[T]{
		name:  name,
		stamp: ir.NoTime,
		obs:   nopObserver{},
	}
}

// Name returns the signal's name within its owner.
func (s *Signal[T]) Name() string {
	return s.name
}

// Owner returns the name of the owning entity, or "" before attachment.
func (s *Signal[T]) Owner() string {
	return s.owner
}

// Path returns "owner.name", or just the name before attachment.
func (s *Signal[T]) Path() string {
	if s.owner == "" {
		return s.name
	}
	return ir.JoinSignalPath(s.owner, s.name)
}

// Attach records the owning entity and the observer notified on evaluation.
// Called by the owner when it registers its signals.
func (s *Signal[T]) Attach(owner string, obs Observer) {
	s.owner = owner
	if obs == nil {
		obs = nopObserver{}
	}
	s.obs = obs
}

// Set stores a constant. Every later read returns v without invoking the
// compute function, until SetFunction or Plug is called again. A plug
// source is dropped.
func (s *Signal[T]) Set(v T) {
	s.value = v
	s.src = nil
	s.mode = modeConstant
}

// SetFunction binds the compute function and drops any cached value.
func (s *Signal[T]) SetFunction(fn ComputeFunc[T], deps ...Any) {
	s.fn = fn
	s.src = nil
	s.mode = modeFunction
	s.stamp = ir.NoTime
	s.ready = false
	s.deps = append(s.deps[:0], deps...)
}

// AddDependency declares extra dependencies for graph export.
func (s *Signal[T]) AddDependency(deps ...Any) {
	s.deps = append(s.deps, deps...)
}

// Dependencies returns the declared dependencies.
func (s *Signal[T]) Dependencies() []Any {
	out := make([]Any, len(s.deps))
	copy(out, s.deps)
	return out
}

// Plug makes reads forward to src.
func (s *Signal[T]) Plug(src *Signal[T]) {
	s.src = src
	s.mode = modePlugged
	s.stamp = ir.NoTime
	s.ready = false
}

// Unplug drops the plug source. The signal falls back to its compute
// function if it has one, and to unset otherwise.
func (s *Signal[T]) Unplug() {
	if s.mode != modePlugged {
		return
	}
	s.src = nil
	s.stamp = ir.NoTime
	s.ready = false
	if s.fn != nil {
		s.mode = modeFunction
	} else {
		s.mode = modeUnset
	}
}

// Source returns the plug source, or nil.
func (s *Signal[T]) Source() Any {
	if s.src == nil {
		return nil
	}
	return s.src
}

// IsPlugged reports whether a compute function or plug source drives the
// signal. Constant and unset signals are not plugged.
func (s *Signal[T]) IsPlugged() bool {
	return s.mode == modeFunction || s.mode == modePlugged
}

// IsConstant reports whether the signal holds a constant.
func (s *Signal[T]) IsConstant() bool {
	return s.mode == modeConstant
}

// Time returns the stamp of the cached value, or ir.NoTime.
func (s *Signal[T]) Time() ir.Time {
	return s.stamp
}

// Value returns the cached value without evaluating.
func (s *Signal[T]) Value() T {
	return s.value
}

// Invalidate drops the cached value so the next read recomputes.
func (s *Signal[T]) Invalidate() {
	s.stamp = ir.NoTime
	s.ready = false
}

// Access returns the value of the signal at time t.
//
// Constants are returned as-is. Function signals return the cached value when
// it was computed for t and compute it otherwise. Plugged signals forward to
// their source on every read.
func (s *Signal[T]) Access(t ir.Time) (T, error) {
	switch s.mode {
	case modeUnset:
		var zero T
		err := ir.NewUnsetSignalError(s.owner, s.name, t)
		s.obs.OnError(s.Path(), t, err)
		return zero, err
	case modeConstant:
		s.obs.OnCacheHit(s.Path(), t)
		return s.value, nil
	case modeFunction:
		if s.ready && s.stamp == t {
			s.obs.OnCacheHit(s.Path(), t)
			return s.value, nil
		}
	}
	return s.evaluate(t)
}

// Recompute evaluates the signal at t even if a value for t is cached.
func (s *Signal[T]) Recompute(t ir.Time) (T, error) {
	switch s.mode {
	case modeUnset, modeConstant:
		return s.Access(t)
	}
	return s.evaluate(t)
}

func (s *Signal[T]) evaluate(t ir.Time) (T, error) {
	var zero T
	if s.evaluating {
		err := ir.NewCycleError(s.owner, s.name, t)
		s.obs.OnError(s.Path(), t, err)
		return zero, err
	}
	s.evaluating = true
	defer func() { s.evaluating = false }()

	if s.mode == modePlugged {
		v, err := s.src.Access(t)
		if err != nil {
			s.obs.OnError(s.Path(), t, err)
			return zero, err
		}
		// The source reports its own computation.
		s.value = v
		s.stamp = t
		s.ready = true
		s.obs.OnCacheHit(s.Path(), t)
		return v, nil
	}

	start := time.Now()
	v, err := s.fn(s.value, t)
	if err != nil {
		s.obs.OnError(s.Path(), t, err)
		return zero, err
	}

	s.value = v
	s.stamp = t
	s.ready = true
	s.obs.OnCompute(s.Path(), t, time.Since(start))
	return v, nil
}
