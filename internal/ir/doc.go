// Package ir provides the value types shared by every layer of sigflow.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the value layer free of
// circular dependencies.
//
// Key design constraints:
//   - Time is a logical step counter, never wall-clock time
//   - Vector and Matrix are dense float64 containers (Matrix is backed by gonum)
//   - Flags is a selection mask whose positions past the explicit bits read as
//     a configurable tail value
//   - GraphError is the single typed failure of graph evaluation and wiring
package ir
