// Package pool provides the process-scoped entity registry.
//
// The pool maps entity names to entities and keeps a sub-index of features so
// that feature references can be resolved by name. It also resolves signal
// paths ("entity.signal") and renders the whole graph in DOT syntax.
//
// A Pool is an explicit object passed to entity constructors; there is no
// global instance. Mutation (Register, Deregister) and lookups are guarded by
// a RWMutex, so a pool may be shared between goroutines even though signal
// evaluation itself is single-threaded.
//
// Names are NFC-normalized on every entry point, so visually identical names
// typed in different Unicode forms resolve to the same entity.
package pool
