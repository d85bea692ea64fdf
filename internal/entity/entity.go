package entity

import (
	"fmt"
	"io"

	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/signal"
)

// Entity is a named graph node owning a set of signals.
type Entity interface {
	Name() string
	ClassName() string

	// Signals returns the owned signals in declaration order.
	Signals() []signal.Any

	// Signal returns the owned signal with the given name.
	Signal(name string) (signal.Any, error)

	// Commands returns the console commands in registration order.
	Commands() []*Command

	// Exec runs a console command.
	Exec(name string, args []string) (string, error)

	// WriteGraph renders the node for graph export.
	WriteGraph(w io.Writer) error
}

// Base implements the bookkeeping part of Entity.
type Base struct {
	name  string
	class string

	signals []signal.Any
	byName  map[string]signal.Any

	commands []*Command
	cmdIndex map[string]*Command
}

// NewBase creates the base of an entity.
func NewBase(name, class string) *Base {
	return &Base{
		name:     name,
		class:    class,
		byName:   make(map[string]signal.Any),
		cmdIndex: make(map[string]*Command),
	}
}

// Name returns the entity name.
func (b *Base) Name() string {
	return b.name
}

// ClassName returns the entity class.
func (b *Base) ClassName() string {
	return b.class
}

// RegisterSignals takes ownership of sigs: each is attached to this entity
// and to obs. Registering a second signal with the same name panics; that
// is a programming error in the entity's constructor.
func (b *Base) RegisterSignals(obs signal.Observer, sigs ...signal.Any) {
	for _, s := range sigs {
		if _, dup := b.byName[s.Name()]; dup {
			panic(fmt.Sprintf("entity %s: signal %q registered twice", b.name, s.Name()))
		}
		s.Attach(b.name, obs)
		b.signals = append(b.signals, s)
		b.byName[s.Name()] = s
	}
}

// Signals implements Entity.
func (b *Base) Signals() []signal.Any {
	out := make([]signal.Any, len(b.signals))
	copy(out, b.signals)
	return out
}

// Signal implements Entity.
func (b *Base) Signal(name string) (signal.Any, error) {
	s, ok := b.byName[name]
	if !ok {
		err := ir.NewUnresolvedError(name, "signal")
		err.Entity = b.name
		return nil, err
	}
	return s, nil
}

// WriteGraph renders the node line. Edges are written by the pool and by
// entities that own extra links.
func (b *Base) WriteGraph(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"\t\"%s\" [ label = \"%s\\n%s\" , fontcolor = black, color = black, fillcolor = cyan, style = filled, shape = box ]\n",
		b.name, b.name, b.class)
	return err
}
