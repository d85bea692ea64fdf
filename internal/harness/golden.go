package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
)

// toCanonicalMap converts the trace of a run to plain data for canonical
// JSON serialization.
func toCanonicalMap(name string, result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, e := range result.Trace {
		m := map[string]any{
			"seq":  e.Seq,
			"type": e.Type,
			"path": e.Path,
		}
		if e.To != "" {
			m["to"] = e.To
		}
		if len(e.Args) > 0 {
			m["args"] = e.Args
		}
		if e.Output != "" {
			m["output"] = e.Output
		}
		if e.Type == StepRead {
			m["time"] = e.Time
		}
		if e.Value != "" {
			m["value"] = e.Value
		}
		if e.ErrorCode != "" {
			m["error_code"] = e.ErrorCode
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": name,
		"run_token":     result.RunToken,
		"trace":         trace,
	}
}

// MarshalTrace returns the canonical JSON form of a scenario's trace, as
// stored in golden files.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(toCanonicalMap(name, result))
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)
	return nil
}

// AssertGraphGolden renders the pool as DOT and compares it against
// testdata/golden/{name}.dot.golden.
func AssertGraphGolden(t *testing.T, name string, p *pool.Pool) error {
	t.Helper()

	var buf bytes.Buffer
	if err := p.WriteGraph(&buf, name); err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".dot.golden"),
	)
	g.Assert(t, name, buf.Bytes())
	return nil
}
