// Package engine steps a signal graph through time.
//
// The graph itself is lazy: nothing is computed until a signal is read.
// The engine is what reads. Each step advances a logical clock and reads
// every watched signal at the new time, which pulls exactly the part of
// the graph those signals depend on.
//
// ARCHITECTURE:
//
// Single-Threaded Stepping:
// Signals are not safe for concurrent use, so Run reads them from the
// calling goroutine only. This ensures:
// - Reads at one time see one consistent set of inputs
// - A run is reproducible from the same graph and start time
// - Memoization is never raced
//
// Run Flow:
// 1. Resolve the watched signal paths against the pool
// 2. Generate a run token and record the run
// 3. For each step: tick the clock, check the quota, read every watched
// signal in order, record one sample per read
// 4. Stop on the first failed read, or record it and go on when
// configured with WithContinueOnError
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Evaluation times come from Clock.Next(). NEVER use wall-clock time as an
// evaluation time.
//
// Deterministic Ordering
// Watched signals are read in declaration order at each step.
// No randomness, no concurrency, no non-determinism.
package engine
