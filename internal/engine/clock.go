package engine

import (
	"sync/atomic"

	"github.com/roach88/sigflow/internal/ir"
)

// Clock is the monotonic logical clock that supplies evaluation times.
//
// Each step reads the graph at a strictly greater time than the one before,
// so memoized values from an earlier step are never returned for a later
// one.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Engine's single-threaded stepping means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific time.
// Used for replay to resume from a recorded position.
func NewClockAt(start ir.Time) *Clock {
	c := &Clock{}
	c.seq.Store(int64(start))
	return c
}

// Next returns the next time and advances the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() ir.Time {
	return ir.Time(c.seq.Add(1))
}

// Current returns the current time without advancing.
func (c *Clock) Current() ir.Time {
	return ir.Time(c.seq.Load())
}
