package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// RunTokenGenerator generates unique run tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RunTokenGenerator interface {
	Generate() string
}

// Recorder persists runs and their samples. Implemented by store.Store.
type Recorder interface {
	WriteRun(ctx context.Context, run ir.RunRecord) error
	WriteSample(ctx context.Context, s ir.Sample) error
}

// DefaultMaxSteps is the default maximum number of steps per run.
const DefaultMaxSteps = 100000

// ErrCodeInternal is recorded for failed reads whose error carries no
// graph error code.
const ErrCodeInternal = "INTERNAL"

// Engine steps a pool through time, reading the watched signals.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine, and nothing else
//     may read or rewire the pool while it runs
//   - NewRun(): safe from any goroutine (delegates to thread-safe generator)
type Engine struct {
	pool     *pool.Pool
	clock    *Clock
	watch    []string
	runGen   RunTokenGenerator
	recorder Recorder
	graph    string

	maxSteps        int
	continueOnError bool
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxSteps sets the maximum steps quota per run.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithClock replaces the default clock starting at 0.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRecorder records every run and sample.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithGraphName sets the graph name stored with each run.
func WithGraphName(name string) EngineOption {
	return func(e *Engine) {
		e.graph = name
	}
}

// WithContinueOnError makes a failed read a recorded sample instead of
// the end of the run.
func WithContinueOnError() EngineOption {
	return func(e *Engine) {
		e.continueOnError = true
	}
}

// New creates an Engine reading the watch paths from p.
//
// The watch slice is copied: signals are read in this order at every step.
func New(p *pool.Pool, watch []string, runGen RunTokenGenerator, opts ...EngineOption) *Engine {
	e := &Engine{
		pool:     p,
		clock:    NewClock(),
		watch:    append([]string(nil), watch...),
		runGen:   runGen,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunResult is the outcome of Run.
type RunResult struct {
	Token   string
	Steps   int // Steps completed
	Samples []ir.Sample
}

// NewRun generates a new run token.
func (e *Engine) NewRun() string {
	return e.runGen.Generate()
}

// Run performs steps steps. It returns the samples read so far together
// with the error that stopped the run, if any.
//
// The context is checked between steps only; a step in progress always
// completes.
func (e *Engine) Run(ctx context.Context, steps int) (*RunResult, error) {
	sigs, err := e.resolveWatch()
	if err != nil {
		return nil, err
	}

	token := e.NewRun()
	result := &RunResult{Token: token}

	if e.recorder != nil {
		run := ir.RunRecord{
			Token: token,
			Graph: e.graph,
			Start: e.clock.Current(),
			Steps: steps,
			Watch: e.watch,
		}
		if err := e.recorder.WriteRun(ctx, run); err != nil {
			return nil, fmt.Errorf("write run %s: %w", token, err)
		}
	}

	slog.Info("run starting",
		"run", token,
		"graph", e.graph,
		"steps", steps,
		"start", e.clock.Current())

	quota := NewQuotaEnforcer(e.maxSteps)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			slog.Info("run stopping: context cancelled", "run", token, "steps", result.Steps)
			return result, err
		}
		if err := quota.Check(token); err != nil {
			slog.Error("max steps quota exceeded",
				"run", token,
				"steps", quota.Current(),
				"limit", e.maxSteps)
			return result, fmt.Errorf("quota enforcement failed: %w", err)
		}

		samples, err := e.step(ctx, token, sigs)
		result.Samples = append(result.Samples, samples...)
		if err != nil {
			return result, err
		}
		result.Steps++
	}

	slog.Info("run finished", "run", token, "steps", result.Steps, "samples", len(result.Samples))
	return result, nil
}

// step advances the clock once and reads every watched signal.
func (e *Engine) step(ctx context.Context, token string, sigs []signal.Any) ([]ir.Sample, error) {
	t := e.clock.Next()
	samples := make([]ir.Sample, 0, len(sigs))

	for _, sig := range sigs {
		s, readErr := Sample(sig, t)
		s.RunToken = token

		if e.recorder != nil {
			if err := e.recorder.WriteSample(ctx, s); err != nil {
				return samples, fmt.Errorf("write sample %s at t=%d: %w", s.Signal, t, err)
			}
		}
		samples = append(samples, s)

		if readErr != nil {
			slog.Debug("watched signal failed",
				"run", token,
				"signal", s.Signal,
				"time", t,
				"error", readErr)
			if !e.continueOnError {
				return samples, fmt.Errorf("step t=%d: read %s: %w", t, s.Signal, readErr)
			}
		}
	}
	return samples, nil
}

// Sample reads sig at t and encodes the outcome as a Sample without a run
// token. The read error, if any, is returned alongside.
func Sample(sig signal.Any, t ir.Time) (ir.Sample, error) {
	s, _, err := SampleValue(sig, t)
	return s, err
}

// SampleValue is Sample that also returns the decoded value.
func SampleValue(sig signal.Any, t ir.Time) (ir.Sample, any, error) {
	s := ir.Sample{Time: t, Signal: sig.Path()}

	v, err := sig.ValueAt(t)
	if err != nil {
		s.ErrorCode = string(ir.ErrorCode(err))
		if s.ErrorCode == "" {
			s.ErrorCode = ErrCodeInternal
		}
		return s, nil, err
	}

	b, err := ir.MarshalCanonical(v)
	if err != nil {
		s.ErrorCode = ErrCodeInternal
		return s, nil, fmt.Errorf("encode %s: %w", sig.Path(), err)
	}
	s.Value = string(b)
	return s, v, nil
}

func (e *Engine) resolveWatch() ([]signal.Any, error) {
	sigs := make([]signal.Any, len(e.watch))
	for i, path := range e.watch {
		sig, err := e.pool.Signal(path)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
		sigs[i] = sig
	}
	return sigs, nil
}

// Clock returns the engine's clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// MaxSteps returns the configured max steps quota.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// Watch returns the watched signal paths.
func (e *Engine) Watch() []string {
	return append([]string(nil), e.watch...)
}
