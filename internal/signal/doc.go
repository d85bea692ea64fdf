// Package signal implements the memoizing, time-stamped cells of the graph.
//
// A Signal[T] is owned by exactly one entity and is in one of four modes:
//
//   - unset: no value source; reads fail with UNSET_SIGNAL
//   - constant: Set stored a value; every read returns it, at any time
//   - function: a ComputeFunc bound by the owner produces the value
//   - plugged: reads forward to another Signal[T] of the same type
//
// EVALUATION MODEL:
//
// Evaluation is pull-based, depth-first and synchronous. Access(t) returns the
// cached value when the stored stamp equals t; otherwise it invokes the compute
// function once, stores value and stamp, and returns. A compute function that
// reads another signal at t recursively triggers that signal's memoized
// evaluation first. Dependency declarations (SetFunction deps, AddDependency)
// feed graph export only; they never drive evaluation order.
//
// Cycle detection: a signal is marked in-progress while its compute function
// runs. Re-entering it fails with CYCLE_DETECTED instead of recursing.
//
// Failure atomicity: when a compute function fails, value and stamp are left
// untouched, so the next read retries the computation.
//
// Thread-safety: signals are NOT safe for concurrent use. A graph is evaluated
// from one goroutine at a time.
package signal
