package signal

import (
	"time"

	"github.com/roach88/sigflow/internal/ir"
)

// Observer is notified of every signal read.
//
// Implementations must be cheap: they run inside evaluation. The metrics
// package provides a Prometheus implementation.
type Observer interface {
	// OnCacheHit is called when a read is served without computing. A read
	// forwarded through a plug counts as a hit; the source reports its own
	// computation.
	OnCacheHit(path string, t ir.Time)

	// OnCompute is called after a successful computation.
	OnCompute(path string, t ir.Time, d time.Duration)

	// OnError is called when a read fails.
	OnError(path string, t ir.Time, err error)
}

type nopObserver struct{}

func (nopObserver) OnCacheHit(string, ir.Time)                {}
func (nopObserver) OnCompute(string, ir.Time, time.Duration) {}
func (nopObserver) OnError(string, ir.Time, error)           {}

// NopObserver returns an Observer that ignores every event.
func NopObserver() Observer {
	return nopObserver{}
}
