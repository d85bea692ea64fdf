// Package feature implements task features: entities that produce an error
// vector, its Jacobian and the number of active error components.
//
// Abstract carries the machinery shared by every feature:
//
//   - signals selec (input mask), errordotIN (input), error, jacobian, dim
//     and errordot (outputs)
//   - a weak reference to another feature, held by name and resolved through
//     the pool on every read, never cached and never owned
//   - the generic error-derivative computation
//
// Concrete features supply error, Jacobian and dimension through the Computer
// interface. Generic is the pass-through feature whose error and Jacobian
// come from input signals.
//
// ERROR DERIVATIVE:
//
// errordot(t) has exactly dim(t) components. When the reference resolves and
// its errordotIN is plugged, the selected components of the reference's
// errordotIN are packed in ascending index order. Otherwise the output is
// dim(t) zeros. A reference vector shorter than dim(t), or a mask selecting
// more than dim(t) of its components, fails with DIMENSION_MISMATCH before
// anything is written.
package feature
