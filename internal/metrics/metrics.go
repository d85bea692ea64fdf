// Package metrics exports signal evaluation counters in Prometheus form.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/signal"
)

const namespace = "sigflow"

// Observer counts signal reads. It implements signal.Observer and is
// attached to a pool with pool.WithObserver.
type Observer struct {
	registry *prometheus.Registry

	cacheHits *prometheus.CounterVec
	computes  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ signal.Observer = (*Observer)(nil)

// New creates an Observer registered on its own registry.
func New() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_cache_hits_total",
			Help:      "Reads served from the memoized value.",
		}, []string{"signal"}),
		computes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_computes_total",
			Help:      "Successful signal computations.",
		}, []string{"signal"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_errors_total",
			Help:      "Failed signal reads by error code.",
		}, []string{"signal", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "signal_compute_seconds",
			Help:      "Time spent computing a signal, dependencies included.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"signal"}),
	}
	o.registry.MustRegister(o.cacheHits, o.computes, o.errors, o.duration)
	return o
}

// Registry returns the registry holding the observer's collectors.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// OnCacheHit implements signal.Observer.
func (o *Observer) OnCacheHit(path string, _ ir.Time) {
	o.cacheHits.WithLabelValues(path).Inc()
}

// OnCompute implements signal.Observer.
func (o *Observer) OnCompute(path string, _ ir.Time, d time.Duration) {
	o.computes.WithLabelValues(path).Inc()
	o.duration.WithLabelValues(path).Observe(d.Seconds())
}

// OnError implements signal.Observer.
//
// Errors propagate through every signal on the pull path, so one failure
// is counted once per signal it passed through.
func (o *Observer) OnError(path string, _ ir.Time, err error) {
	code := string(ir.ErrorCode(err))
	if code == "" {
		code = "INTERNAL"
	}
	o.errors.WithLabelValues(path, code).Inc()
}
