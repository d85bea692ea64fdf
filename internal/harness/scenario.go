package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a graph test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the directory holding the graph's CUE files.
	// Relative paths are resolved against the scenario file.
	Graph string `yaml:"graph"`

	// Steps are performed in order against the built graph.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace once every step has run.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunToken is an optional fixed run token.
	// If empty, defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`
}

// Step performs one action on the graph. Exactly one of Set, Plug, Unplug,
// Command and Read is non-empty.
type Step struct {
	// Set is the path of an input to give a constant Value.
	Set   string `yaml:"set,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Plug is the source path plugged into To.
	Plug string `yaml:"plug,omitempty"`
	To   string `yaml:"to,omitempty"`

	// Unplug is the path of an input to unplug.
	Unplug string `yaml:"unplug,omitempty"`

	// Command is "entity.command", run with Args.
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`

	// Read is the path of a signal read at time At.
	Read   string `yaml:"read,omitempty"`
	At     int64  `yaml:"at,omitempty"`
	Expect any    `yaml:"expect,omitempty"`

	// Output is the expected command output.
	Output *string `yaml:"output,omitempty"`

	// Error is the graph error code the step must fail with.
	Error string `yaml:"error,omitempty"`
}

// Kind returns the step's action name.
func (s Step) Kind() string {
	switch {
	case s.Set != "":
		return StepSet
	case s.Plug != "":
		return StepPlug
	case s.Unplug != "":
		return StepUnplug
	case s.Command != "":
		return StepCommand
	case s.Read != "":
		return StepRead
	}
	return ""
}

// Step kinds.
const (
	StepSet     = "set"
	StepPlug    = "plug"
	StepUnplug  = "unplug"
	StepCommand = "command"
	StepRead    = "read"
)

// Assertion validates the trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a read of Signal (at At, when set) is in the trace
	// - "trace_order": Signals were first read in this order
	// - "trace_count": Signal was read exactly Count times
	// - "stored_samples": the store holds Count samples of Signal
	Type string `yaml:"type"`

	Signal string `yaml:"signal,omitempty"`

	// At restricts trace_contains to one time.
	At *int64 `yaml:"at,omitempty"`

	// Count is the expected number of reads or samples.
	Count int `yaml:"count,omitempty"`

	// Signals is the expected read order (used by trace_order).
	Signals []string `yaml:"signals,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertStoredSamples = "stored_samples"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
//
// A relative graph path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Graph != "" && !filepath.IsAbs(scenario.Graph) {
		scenario.Graph = filepath.Join(filepath.Dir(path), scenario.Graph)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if info, err := os.Stat(s.Graph); err != nil || !info.IsDir() {
		return fmt.Errorf("graph directory not found: %s", s.Graph)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	var kinds []string
	for kind, set := range map[string]bool{
		StepSet:     s.Set != "",
		StepPlug:    s.Plug != "",
		StepUnplug:  s.Unplug != "",
		StepCommand: s.Command != "",
		StepRead:    s.Read != "",
	} {
		if set {
			kinds = append(kinds, kind)
		}
	}
	switch len(kinds) {
	case 0:
		return fmt.Errorf("steps[%d]: one of set, plug, unplug, command or read is required", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: only one action per step, got %d", index, len(kinds))
	}

	switch s.Kind() {
	case StepSet:
		if s.Value == nil {
			return fmt.Errorf("steps[%d]: value is required for set", index)
		}
	case StepPlug:
		if s.To == "" {
			return fmt.Errorf("steps[%d]: to is required for plug", index)
		}
	case StepCommand:
		if !strings.Contains(s.Command, ".") {
			return fmt.Errorf("steps[%d]: command must be entity.command, got %q", index, s.Command)
		}
	case StepRead:
		if s.Expect != nil && s.Error != "" {
			return fmt.Errorf("steps[%d]: read takes expect or error, not both", index)
		}
	}
	if s.Output != nil && s.Kind() != StepCommand {
		return fmt.Errorf("steps[%d]: output is only valid for command", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Signal == "" {
			return fmt.Errorf("assertions[%d]: signal is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Signals) == 0 {
			return fmt.Errorf("assertions[%d]: signals list is required for trace_order", index)
		}
	case AssertTraceCount, AssertStoredSamples:
		if a.Signal == "" {
			return fmt.Errorf("assertions[%d]: signal is required for %s", index, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
