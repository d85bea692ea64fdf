package ir

import "math"

// Time is the discrete logical time at which signals are evaluated.
//
// Time never refers to the wall clock. Engines advance it one step at a time
// and every signal read is stamped with the time it was computed for.
type Time int64

// NoTime marks a signal that has never been computed.
const NoTime Time = math.MinInt64
