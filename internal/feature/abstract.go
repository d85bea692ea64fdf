package feature

import (
	"fmt"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// ClassName is the class of the abstract feature layer.
const ClassName = "FeatureAbstract"

// Signal names shared by every feature.
const (
	SignalSelection  = "selec"
	SignalErrordotIn = "errordotIN"
	SignalError      = "error"
	SignalJacobian   = "jacobian"
	SignalDimension  = "dim"
	SignalErrordot   = "errordot"
)

// Computer is implemented by concrete features.
//
// Each method receives the previous value of its signal as buf and returns
// the value for time t.
type Computer interface {
	ComputeError(buf ir.Vector, t ir.Time) (ir.Vector, error)
	ComputeJacobian(buf ir.Matrix, t ir.Time) (ir.Matrix, error)
	Dimension(buf int, t ir.Time) (int, error)
}

// Feature is implemented by every feature entity.
type Feature interface {
	entity.Entity
	FeatureAbstract() *Abstract
}

// Abstract is the part of a feature shared by every concrete feature.
// Concrete features embed *Abstract.
type Abstract struct {
	*entity.Base

	pool    *pool.Pool
	refName string

	SelectionSIN  *signal.Signal[ir.Flags]
	ErrordotSIN   *signal.Signal[ir.Vector]
	ErrorSOUT     *signal.Signal[ir.Vector]
	JacobianSOUT  *signal.Signal[ir.Matrix]
	DimensionSOUT *signal.Signal[int]
	ErrordotSOUT  *signal.Signal[ir.Vector]
}

// NewAbstract builds the shared part of a feature. impl supplies error,
// Jacobian and dimension. The selection mask defaults to selecting every
// component.
//
// NewAbstract does not register anything in the pool: the concrete
// constructor calls Register once its own signals are in place.
func NewAbstract(p *pool.Pool, name, class string, impl Computer) *Abstract {
	a := &Abstract{
		Base: entity.NewBase(name, class),
		pool: p,
	}

	a.SelectionSIN = signal.NewInput[ir.Flags](SignalSelection)
	a.SelectionSIN.Set(ir.AllFlags(true))
	a.ErrordotSIN = signal.NewInput[ir.Vector](SignalErrordotIn)

	a.ErrorSOUT = signal.NewSignal(SignalError, impl.ComputeError, a.SelectionSIN)
	a.JacobianSOUT = signal.NewSignal(SignalJacobian, impl.ComputeJacobian, a.SelectionSIN)
	a.DimensionSOUT = signal.NewSignal(SignalDimension, impl.Dimension, a.SelectionSIN)
	a.ErrordotSOUT = signal.NewSignal(SignalErrordot, a.computeErrorDot,
		a.SelectionSIN, a.ErrordotSIN, a.DimensionSOUT)

	a.RegisterSignals(p.Observer(),
		a.SelectionSIN, a.ErrordotSIN,
		a.ErrorSOUT, a.JacobianSOUT, a.DimensionSOUT, a.ErrordotSOUT)
	a.initCommands()
	return a
}

// FeatureAbstract implements Feature.
func (a *Abstract) FeatureAbstract() *Abstract {
	return a
}

// Pool returns the pool the feature resolves references through.
func (a *Abstract) Pool() *pool.Pool {
	return a.pool
}

// Register adds f to its pool as an entity and as a feature.
func Register(f Feature) error {
	p := f.FeatureAbstract().pool
	if err := p.Register(f); err != nil {
		return err
	}
	if err := p.RegisterFeature(f); err != nil {
		_ = p.Deregister(f.Name())
		return err
	}
	return nil
}

// Destroy removes the feature from its pool. Features referencing it by
// name see their reference as unset from then on.
func (a *Abstract) Destroy() error {
	return a.pool.Deregister(a.Name())
}

// computeErrorDot packs the selected components of the reference's error
// derivative, or zeros when there is none. See the package documentation.
func (a *Abstract) computeErrorDot(_ ir.Vector, t ir.Time) (ir.Vector, error) {
	fl, err := a.SelectionSIN.Access(t)
	if err != nil {
		return nil, err
	}
	dim, err := a.DimensionSOUT.Access(t)
	if err != nil {
		return nil, err
	}
	if dim < 0 {
		return nil, ir.NewDimensionError(a.Name(), t, "negative dimension %d", dim)
	}

	ref := a.ReferenceAbstract()
	if ref == nil || !ref.ErrordotSIN.IsPlugged() {
		return ir.Zeros(dim), nil
	}

	des, err := ref.ErrordotSIN.Access(t)
	if err != nil {
		return nil, err
	}
	if len(des) < dim {
		return nil, ir.NewDimensionError(a.Name(), t,
			"dimension %d incompatible with %s errordotIN size %d", dim, ref.Name(), len(des))
	}

	idx := fl.Selected(len(des))
	if len(idx) > dim {
		return nil, ir.NewDimensionError(a.Name(), t,
			"selection picks %d components of %s errordotIN, dimension is %d", len(idx), ref.Name(), dim)
	}

	out := ir.Zeros(dim)
	for k, i := range idx {
		out[k] = des[i]
	}
	return out, nil
}

func (a *Abstract) String() string {
	return fmt.Sprintf("%s(%s)", a.ClassName(), a.Name())
}
