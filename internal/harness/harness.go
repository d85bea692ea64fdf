package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sigflow/internal/compiler"
	"github.com/roach88/sigflow/internal/engine"
	"github.com/roach88/sigflow/internal/factory"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/store"
)

// DefaultRunToken is used when a scenario sets no run token.
const DefaultRunToken = "test-run-default"

// Harness is the test execution engine.
// It runs scenarios with a fixed run token and a deterministic step clock.
type Harness struct {
	pool   *pool.Pool
	store  *store.Store
	clock  *engine.Clock
	token  string
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh pool and a fresh in-memory trace
// store. Step failures and assertion failures are reported in the result;
// the returned error is reserved for scenarios that cannot run at all.
//
// Execution flow:
// 1. Load, validate and build the graph
// 2. Create fresh in-memory store and record the run
// 3. Perform steps, checking each against its expectation
// 4. Evaluate assertions against the trace and the store
func Run(scenario *Scenario) (*Result, error) {
	return RunWithRegistry(scenario, factory.Default())
}

// RunWithRegistry is Run with a custom class registry.
func RunWithRegistry(scenario *Scenario, reg *factory.Registry) (*Result, error) {
	loaded, err := compiler.LoadGraph(scenario.Graph, compiler.LoadModeFailFast)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	spec := loaded.Spec
	if verrs := compiler.Validate(spec); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid graph: %w", verrs[0])
	}

	p := pool.New()
	if err := reg.Build(p, spec); err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	token := scenario.RunToken
	if token == "" {
		token = DefaultRunToken
	}
	token = engine.NewFixedGenerator(token).Generate()

	h := &Harness{
		pool:   p,
		store:  st,
		clock:  engine.NewClock(),
		token:  token,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	run := ir.RunRecord{
		Token: token,
		Graph: spec.Name,
		Steps: len(scenario.Steps),
		Watch: readPaths(scenario.Steps),
	}
	if err := st.WriteRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	result := NewResult(token)
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx, RunToken: token}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep performs one step and records it in the trace. Expectation
// mismatches go to the result; only store failures are returned.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	event := TraceEvent{Seq: int64(h.clock.Next()), Type: step.Kind()}

	var stepErr error
	switch event.Type {
	case StepSet:
		event.Path = step.Set
		stepErr = h.set(step.Set, step.Value)

	case StepPlug:
		event.Path = step.Plug
		event.To = step.To
		stepErr = h.pool.Plug(step.Plug, step.To)

	case StepUnplug:
		event.Path = step.Unplug
		stepErr = h.unplug(step.Unplug)

	case StepCommand:
		event.Path = step.Command
		event.Args = step.Args
		event.Output, stepErr = h.command(step.Command, step.Args)
		if stepErr == nil && step.Output != nil && *step.Output != event.Output {
			result.AddError(fmt.Sprintf("step %d: %s output = %q, want %q", i, step.Command, event.Output, *step.Output))
		}

	case StepRead:
		event.Path = step.Read
		event.Time = ir.Time(step.At)
		var sample ir.Sample
		var value any
		sample, value, stepErr = h.read(step.Read, event.Time)
		event.Value = sample.Value
		if sample.Signal != "" {
			if err := h.store.WriteSample(ctx, sample); err != nil {
				return fmt.Errorf("write sample: %w", err)
			}
		}
		if stepErr == nil && step.Expect != nil {
			if err := matchValue(value, step.Expect); err != nil {
				result.AddError(fmt.Sprintf("step %d: read %s at t=%d: %v", i, step.Read, step.At, err))
			}
		}
	}

	if stepErr != nil {
		event.ErrorCode = string(ir.ErrorCode(stepErr))
		if event.ErrorCode == "" {
			event.ErrorCode = engine.ErrCodeInternal
		}
	}
	result.AddEvent(event)
	h.checkError(i, step, event, stepErr, result)

	h.logger.Info("step completed",
		"step", i,
		"type", event.Type,
		"path", event.Path,
		"error_code", event.ErrorCode)
	return nil
}

func (h *Harness) checkError(i int, step Step, event TraceEvent, err error, result *Result) {
	switch {
	case step.Error == "" && err != nil:
		result.AddError(fmt.Sprintf("step %d: %s %s failed: %v", i, event.Type, event.Path, err))
	case step.Error != "" && err == nil:
		result.AddError(fmt.Sprintf("step %d: %s %s succeeded, want error %s", i, event.Type, event.Path, step.Error))
	case step.Error != "" && event.ErrorCode != step.Error:
		result.AddError(fmt.Sprintf("step %d: %s %s failed with %s, want %s: %v", i, event.Type, event.Path, event.ErrorCode, step.Error, err))
	}
}

func (h *Harness) set(path string, value any) error {
	sig, err := h.pool.Signal(path)
	if err != nil {
		return err
	}
	return sig.SetValue(value)
}

func (h *Harness) unplug(path string) error {
	sig, err := h.pool.Signal(path)
	if err != nil {
		return err
	}
	sig.Unplug()
	return nil
}

func (h *Harness) command(path string, args []string) (string, error) {
	name, cmd, err := ir.SignalPath(path)
	if err != nil {
		return "", err
	}
	e, err := h.pool.Lookup(name)
	if err != nil {
		return "", err
	}
	if args == nil {
		args = []string{}
	}
	return e.Exec(cmd, args)
}

// read samples a signal. The returned sample is empty when the path does
// not resolve, since there is nothing to store.
func (h *Harness) read(path string, t ir.Time) (ir.Sample, any, error) {
	sig, err := h.pool.Signal(path)
	if err != nil {
		return ir.Sample{}, nil, err
	}
	sample, value, err := engine.SampleValue(sig, t)
	sample.RunToken = h.token
	return sample, value, err
}

func readPaths(steps []Step) []string {
	seen := make(map[string]bool)
	paths := []string{}
	for _, s := range steps {
		if s.Read != "" && !seen[s.Read] {
			seen[s.Read] = true
			paths = append(paths, s.Read)
		}
	}
	return paths
}
