// Package source provides entities that feed values into the graph:
// constant vectors, constant selection masks and time ramps.
//
// Every source exposes its value on an output signal named "sout".
package source
