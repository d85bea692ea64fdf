package ir

// NOTE: These are trace records, not part of the graph itself. The store
// keeps them; the engine produces them.

// RunRecord describes one engine run.
type RunRecord struct {
	Token string   `json:"token"` // UUIDv7 run token
	Graph string   `json:"graph"` // Graph name
	Start Time     `json:"start"` // Clock position before the first step
	Steps int      `json:"steps"` // Requested step count
	Watch []string `json:"watch"` // Watched signal paths, in order
}

// Sample is the value of one watched signal at one time.
//
// Exactly one of Value and ErrorCode is set: a failed read records the
// error code and leaves Value empty.
type Sample struct {
	RunToken  string `json:"run_token"`
	Time      Time   `json:"time"`
	Signal    string `json:"signal"`               // Signal path, "entity.signal"
	Value     string `json:"value,omitempty"`      // Canonical JSON of the value
	ErrorCode string `json:"error_code,omitempty"` // GraphErrorCode of a failed read
}

// Failed reports whether the sample records a failed read.
func (s Sample) Failed() bool {
	return s.ErrorCode != ""
}
