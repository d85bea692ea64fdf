// Package store provides SQLite-backed storage for evaluation traces.
//
// The store is an append-only log with:
//   - Runs: one record per engine run (token, graph, start time, watch list)
//   - Samples: one record per watched signal per step
//
// The graph itself is never stored. A trace is enough to check a later
// build of the same graph for determinism (see engine.Replay).
//
// # Critical Patterns
//
// Logical Time
//   - Samples are ordered by evaluation time, NEVER wall-clock timestamps
//   - Queries use ORDER BY time ASC, id ASC
//
// Canonical Values
//   - Sample values are canonical JSON (sorted keys, shortest floats)
//   - Identical values always store as identical text
//
// Idempotent Writes
//   - UNIQUE(run_token, time, signal) with ON CONFLICT DO NOTHING
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
