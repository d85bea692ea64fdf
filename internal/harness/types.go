package harness

import "github.com/roach88/sigflow/internal/ir"

// TraceEvent records one performed step.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Type string `json:"type"` // step kind: set, plug, unplug, command or read
	Path string `json:"path"`

	To     string   `json:"to,omitempty"`     // plug
	Args   []string `json:"args,omitempty"`   // command
	Output string   `json:"output,omitempty"` // command

	Time  ir.Time `json:"time,omitempty"`  // read
	Value string  `json:"value,omitempty"` // read, canonical JSON

	ErrorCode string `json:"error_code,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step and assertion matched.
	Pass bool `json:"pass"`

	// RunToken is the token the reads were stored under.
	RunToken string `json:"run_token"`

	// Trace contains every performed step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runToken string) *Result {
	return &Result{
		Pass:     true,
		RunToken: runToken,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends a step to the trace.
func (r *Result) AddEvent(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}

// Reads returns the read events of the trace.
func (r *Result) Reads() []TraceEvent {
	var reads []TraceEvent
	for _, e := range r.Trace {
		if e.Type == StepRead {
			reads = append(reads, e)
		}
	}
	return reads
}
