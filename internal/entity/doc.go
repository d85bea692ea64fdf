// Package entity defines the graph node contract and its reusable base.
//
// An Entity is a named owner of signals. Concrete entities embed *Base, which
// keeps the signals in declaration order, attaches them to the owner name and
// the pool observer, renders the node for graph export and dispatches the
// console commands the entity exposes.
package entity
