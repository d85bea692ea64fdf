package harness

import (
	"context"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/store"
)

// ValueTolerance is the absolute tolerance used to compare expected and
// read numbers.
const ValueTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nReads:\n")
		for i, event := range e.Trace {
			if event.Type != StepRead {
				continue
			}
			if event.ErrorCode != "" {
				fmt.Fprintf(&buf, "  [%d] %s t=%d %s\n", i+1, event.Path, event.Time, event.ErrorCode)
			} else {
				fmt.Fprintf(&buf, "  [%d] %s t=%d %s\n", i+1, event.Path, event.Time, event.Value)
			}
		}
	}

	return buf.String()
}

// AssertionContext provides what store-backed assertions need.
type AssertionContext struct {
	Store    *store.Store
	Ctx      context.Context
	RunToken string
}

// EvaluateAssertions evaluates every assertion and returns the failure
// messages. An empty slice means every assertion passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertStoredSamples:
			err = assertStoredSamples(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceContains checks if the trace contains a read of the signal,
// at the given time when one is set.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != StepRead || event.Path != assertion.Signal {
			continue
		}
		if assertion.At == nil || int64(event.Time) == *assertion.At {
			return nil
		}
	}

	expected := "read of " + assertion.Signal
	if assertion.At != nil {
		expected += fmt.Sprintf(" at t=%d", *assertion.At)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that signals were first read in the given order.
// Reads don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type == StepRead && positions[event.Path] == 0 {
			positions[event.Path] = i + 1 // 1-indexed for readability
		}
	}

	for _, sig := range assertion.Signals {
		if positions[sig] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all signals read: %v", assertion.Signals),
				Actual:   fmt.Sprintf("never read: %s", sig),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Signals); i++ {
		prev := assertion.Signals[i-1]
		curr := assertion.Signals[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("signals read in order: %v", assertion.Signals),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the signal was read exactly the specified
// number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == StepRead && event.Path == assertion.Signal {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d reads of %s", assertion.Count, assertion.Signal),
			Actual:   fmt.Sprintf("%d reads", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertStoredSamples checks how many samples of the signal the store
// holds for the run. Repeated reads at one time are stored once.
func assertStoredSamples(actx *AssertionContext, assertion Assertion) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_samples assertion requires a store")
	}

	samples, err := actx.Store.ReadSamples(actx.Ctx, actx.RunToken, assertion.Signal)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredSamples,
			Expected: fmt.Sprintf("samples of %s", assertion.Signal),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(samples) != assertion.Count {
		return &AssertionError{
			Type:     AssertStoredSamples,
			Expected: fmt.Sprintf("%d stored samples of %s", assertion.Count, assertion.Signal),
			Actual:   fmt.Sprintf("%d stored samples", len(samples)),
		}
	}
	return nil
}

// matchValue compares a read value with an expected value decoded from
// YAML. The expected value is converted to the read value's type first.
func matchValue(actual, expect any) error {
	switch got := actual.(type) {
	case ir.Vector:
		want, err := ir.Convert[ir.Vector](expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if !floats.EqualApprox(got, want, ValueTolerance) {
			return fmt.Errorf("got %v, want %v", got, want)
		}

	case ir.Matrix:
		want, err := ir.Convert[ir.Matrix](expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if !matrixApprox(got, want) {
			return fmt.Errorf("got %v, want %v", got, want)
		}

	case ir.Flags:
		want, err := ir.Convert[ir.Flags](expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if !got.Equal(want) {
			return fmt.Errorf("got %v, want %v", got, want)
		}

	case int:
		want, err := ir.Convert[int](expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if got != want {
			return fmt.Errorf("got %d, want %d", got, want)
		}

	case float64:
		want, err := ir.Convert[float64](expect)
		if err != nil {
			return fmt.Errorf("expect: %w", err)
		}
		if !scalar.EqualWithinAbs(got, want, ValueTolerance) {
			return fmt.Errorf("got %v, want %v", got, want)
		}

	default:
		if fmt.Sprint(actual) != fmt.Sprint(expect) {
			return fmt.Errorf("got %v, want %v", actual, expect)
		}
	}
	return nil
}

func matrixApprox(a, b ir.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		if !floats.EqualApprox(a.Row(i), b.Row(i), ValueTolerance) {
			return false
		}
	}
	return true
}
