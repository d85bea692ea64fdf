package pool

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/signal"
)

// Pool is the name → entity registry.
type Pool struct {
	mu       sync.RWMutex
	entities map[string]entity.Entity
	features map[string]entity.Entity
	obs      signal.Observer
}

// Option configures a Pool.
type Option func(*Pool)

// WithObserver sets the observer attached to every signal of every entity
// constructed against this pool.
func WithObserver(obs signal.Observer) Option {
	return func(p *Pool) {
		p.obs = obs
	}
}

// New creates an empty pool.
func New(opts ...Option) *Pool {
	p := &Pool{
		entities: make(map[string]entity.Entity),
		features: make(map[string]entity.Entity),
		obs:      signal.NopObserver(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Observer returns the observer entities attach to their signals.
func (p *Pool) Observer() signal.Observer {
	return p.obs
}

// Normalize returns the canonical form of an entity name.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// Register adds e under its name. Fails with DUPLICATE_ENTITY if the name
// is taken.
func (p *Pool) Register(e entity.Entity) error {
	name := Normalize(e.Name())
	if name == "" {
		return fmt.Errorf("cannot register entity with empty name")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.entities[name]; dup {
		return &ir.GraphError{
			Code:    ir.ErrCodeDuplicateEntity,
			Message: "an entity with this name is already registered",
			Entity:  name,
			Time:    ir.NoTime,
		}
	}
	p.entities[name] = e
	slog.Debug("entity registered", "name", name, "class", e.ClassName())
	return nil
}

// RegisterFeature adds an already registered entity to the feature index.
func (p *Pool) RegisterFeature(e entity.Entity) error {
	name := Normalize(e.Name())

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.entities[name] != e {
		return fmt.Errorf("feature %q must be registered as an entity first", name)
	}
	p.features[name] = e
	return nil
}

// Deregister removes the entity (and its feature index entry).
func (p *Pool) Deregister(name string) error {
	name = Normalize(name)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entities[name]; !ok {
		return ir.NewUnresolvedError(name, "entity")
	}
	delete(p.entities, name)
	delete(p.features, name)
	slog.Debug("entity deregistered", "name", name)
	return nil
}

// Lookup returns the entity registered under name.
func (p *Pool) Lookup(name string) (entity.Entity, error) {
	name = Normalize(name)

	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entities[name]
	if !ok {
		return nil, ir.NewUnresolvedError(name, "entity")
	}
	return e, nil
}

// Feature returns the feature registered under name.
func (p *Pool) Feature(name string) (entity.Entity, error) {
	name = Normalize(name)

	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.features[name]
	if !ok {
		return nil, ir.NewUnresolvedError(name, "feature")
	}
	return e, nil
}

// Signal resolves a signal path of the form "entity.signal".
func (p *Pool) Signal(path string) (signal.Any, error) {
	ent, sig, err := ir.SignalPath(path)
	if err != nil {
		return nil, err
	}
	e, err := p.Lookup(ent)
	if err != nil {
		return nil, err
	}
	return e.Signal(sig)
}

// Plug connects the output at fromPath to the input at toPath.
func (p *Pool) Plug(fromPath, toPath string) error {
	from, err := p.Signal(fromPath)
	if err != nil {
		return fmt.Errorf("plug %s -> %s: %w", fromPath, toPath, err)
	}
	to, err := p.Signal(toPath)
	if err != nil {
		return fmt.Errorf("plug %s -> %s: %w", fromPath, toPath, err)
	}
	if err := to.PlugAny(from); err != nil {
		return fmt.Errorf("plug %s -> %s: %w", fromPath, toPath, err)
	}
	return nil
}

// Entities returns every entity sorted by name.
func (p *Pool) Entities() []entity.Entity {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.entities))
	for name := range p.entities {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]entity.Entity, len(names))
	for i, name := range names {
		out[i] = p.entities[name]
	}
	return out
}

// Len returns the number of registered entities.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entities)
}
