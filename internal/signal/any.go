package signal

import (
	"fmt"
	"strings"

	"github.com/roach88/sigflow/internal/ir"
)

// Any is the type-erased view of a Signal[T].
//
// The pool, the builder and the CLI address signals by path and do not know
// their value type; they go through Any. Type errors surface as TYPE_MISMATCH.
type Any interface {
	Name() string
	Owner() string
	Path() string
	TypeName() string

	IsPlugged() bool
	IsConstant() bool
	Time() ir.Time
	Dependencies() []Any
	Source() Any

	// ValueAt reads the signal at t and returns the value boxed.
	ValueAt(t ir.Time) (any, error)

	// SetValue converts v with ir.Convert and stores it as a constant.
	SetValue(v any) error

	// PlugAny plugs src into this signal; src must carry the same type.
	PlugAny(src Any) error

	Unplug()
	Invalidate()
	Attach(owner string, obs Observer)
}

var _ Any = (*Signal[ir.Vector])(nil)

// TypeName returns a short name for the value type, e.g. "Vector".
func (s *Signal[T]) TypeName() string {
	var zero T
	name := fmt.Sprintf("%T", zero)
	return strings.TrimPrefix(name, "ir.")
}

// ValueAt implements Any.
func (s *Signal[T]) ValueAt(t ir.Time) (any, error) {
	v, err := s.Access(t)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// SetValue implements Any.
func (s *Signal[T]) SetValue(v any) error {
	val, err := ir.Convert[T](v)
	if err != nil {
		return ir.NewTypeError(s.owner, s.name, "cannot set %s signal: %v", s.TypeName(), err)
	}
	s.Set(val)
	return nil
}

// PlugAny implements Any.
func (s *Signal[T]) PlugAny(src Any) error {
	typed, ok := src.(*Signal[T])
	if !ok {
		return ir.NewTypeError(s.owner, s.name,
			"cannot plug %s (%s) into %s (%s)", src.Path(), src.TypeName(), s.Path(), s.TypeName())
	}
	s.Plug(typed)
	return nil
}
