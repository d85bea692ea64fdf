// Package factory constructs entities by class name and builds compiled
// graph declarations into a pool.
package factory

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/feature"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/source"
)

// Constructor creates an entity named name and registers it in p.
type Constructor func(p *pool.Pool, name string) (entity.Entity, error)

type class struct {
	ctor Constructor

	// aliases maps parameter names to signal names.
	aliases map[string]string
}

// Registry maps class names to constructors.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]class
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]class)}
}

// Default returns a registry holding every built-in class.
func Default() *Registry {
	r := NewRegistry()
	r.Register(feature.GenericClassName, func(p *pool.Pool, name string) (entity.Entity, error) {
		return feature.NewGeneric(p, name)
	}, nil)
	r.Register(source.VectorConstantClass, func(p *pool.Pool, name string) (entity.Entity, error) {
		return source.NewVectorConstant(p, name)
	}, map[string]string{"value": source.SignalOut})
	r.Register(source.FlagsConstantClass, func(p *pool.Pool, name string) (entity.Entity, error) {
		return source.NewFlagsConstant(p, name)
	}, map[string]string{"value": source.SignalOut})
	r.Register(source.VectorRampClass, func(p *pool.Pool, name string) (entity.Entity, error) {
		return source.NewVectorRamp(p, name)
	}, nil)
	return r
}

// Register adds a class. Parameters given to the entity at build time are
// stored into the signal of the same name, or into aliases[param] when
// present. Registering a class twice panics.
func (r *Registry) Register(name string, ctor Constructor, aliases map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.classes[name]; dup {
		panic(fmt.Sprintf("factory: class %q registered twice", name))
	}
	r.classes[name] = class{ctor: ctor, aliases: aliases}
}

// Classes returns the registered class names, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs an entity of the given class and applies params.
// Fails with UNKNOWN_CLASS when no constructor is registered. When a
// parameter cannot be applied the entity is removed from p again.
func (r *Registry) New(p *pool.Pool, className, name string, params map[string]any) (entity.Entity, error) {
	r.mu.RLock()
	c, ok := r.classes[className]
	r.mu.RUnlock()
	if !ok {
		return nil, &ir.GraphError{
			Code:    ir.ErrCodeUnknownClass,
			Message: fmt.Sprintf("no class named %q", className),
			Entity:  name,
			Time:    ir.NoTime,
		}
	}

	e, err := c.ctor(p, name)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sigName := k
		if alias, ok := c.aliases[k]; ok {
			sigName = alias
		}
		sig, err := e.Signal(sigName)
		if err != nil {
			return nil, discard(p, e, fmt.Errorf("parameter %s: %w", k, err))
		}
		if err := sig.SetValue(params[k]); err != nil {
			return nil, discard(p, e, err)
		}
	}
	return e, nil
}

// discard deregisters a half-configured entity and returns err.
func discard(p *pool.Pool, e entity.Entity, err error) error {
	if derr := p.Deregister(e.Name()); derr != nil {
		slog.Error("error discarding entity", "entity", e.Name(), "error", derr)
	}
	return err
}

// Build constructs spec into p: entities first, then references, plugs and
// sets, each in declaration order. Build stops at the first error; entities
// created before it stay registered.
func (r *Registry) Build(p *pool.Pool, spec *ir.GraphSpec) error {
	for _, ent := range spec.Entities {
		if _, err := r.New(p, ent.Class, ent.Name, ent.Params); err != nil {
			return fmt.Errorf("entity %s: %w", ent.Name, err)
		}
	}

	for _, ent := range spec.Entities {
		if ent.Reference == "" {
			continue
		}
		if err := setReference(p, ent.Name, ent.Reference); err != nil {
			return fmt.Errorf("entity %s: %w", ent.Name, err)
		}
	}

	for _, pl := range spec.Plugs {
		if err := p.Plug(pl.From, pl.To); err != nil {
			return err
		}
	}

	for _, s := range spec.Sets {
		sig, err := p.Signal(s.Path)
		if err != nil {
			return fmt.Errorf("set %s: %w", s.Path, err)
		}
		if err := sig.SetValue(s.Value); err != nil {
			return fmt.Errorf("set %s: %w", s.Path, err)
		}
	}

	slog.Debug("graph built",
		"graph", spec.Name,
		"entities", len(spec.Entities),
		"plugs", len(spec.Plugs),
		"sets", len(spec.Sets))
	return nil
}

func setReference(p *pool.Pool, name, ref string) error {
	e, err := p.Lookup(name)
	if err != nil {
		return err
	}
	f, ok := e.(feature.Feature)
	if !ok {
		return &ir.GraphError{
			Code:    ir.ErrCodeTypeMismatch,
			Message: fmt.Sprintf("%s entities take no reference", e.ClassName()),
			Entity:  name,
			Time:    ir.NoTime,
		}
	}
	return f.FeatureAbstract().SetReferenceByName(ref)
}
