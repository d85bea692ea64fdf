// Package harness runs scenario files against signal graphs.
//
// A scenario names a graph directory, drives the built graph through a list
// of steps and checks the reads it made.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: reach_errordot
//	description: "Reference velocity is projected through the selection"
//	graph: graphs/reach
//	steps:
//	  - set: task.selec
//	    value: "1010"
//	  - plug: vel.sout
//	    to: goal.errordotIN
//	  - command: task.setReference
//	    args: [goal]
//	  - read: task.errordot
//	    at: 1
//	    expect: [0.1, 0.3]
//	  - read: task.errordot
//	    at: 2
//	    error: DIMENSION_MISMATCH
//	assertions:
//	  - type: trace_count
//	    signal: task.errordot
//	    count: 2
//
// Each step performs exactly one of set, plug, unplug, command or read. Any
// step may carry an error code, in which case it must fail with that code.
// A read may carry an expected value, compared with a tolerance of 1e-9.
//
// # Assertion Types
//
//   - trace_contains: a read of signal (at time at, when given) is in the trace
//   - trace_order: the first reads of the listed signals happen in that order
//   - trace_count: signal was read exactly count times
//   - stored_samples: the trace store holds count samples of signal
//
// # Deterministic Testing
//
// Every scenario runs against a fresh pool and an in-memory trace store,
// with a fixed run token and a step sequence starting at 1, so the trace of
// a scenario is byte-identical across runs and can be compared against a
// golden file.
package harness
