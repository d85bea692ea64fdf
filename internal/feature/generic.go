package feature

import (
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// GenericClassName is the class of the pass-through feature.
const GenericClassName = "FeatureGeneric"

// Generic is a feature whose error and Jacobian are inputs.
//
// error is the selected components of errorIN, minus the same components of
// the reference's errorIN when a reference is set. jacobian is the selected
// rows of jacobianIN. dim is the number of selected components of errorIN.
type Generic struct {
	*Abstract

	ErrorSIN    *signal.Signal[ir.Vector]
	JacobianSIN *signal.Signal[ir.Matrix]
}

var _ Feature = (*Generic)(nil)

// NewGeneric creates a Generic feature and registers it in p.
func NewGeneric(p *pool.Pool, name string) (*Generic, error) {
	g := &Generic{
		ErrorSIN:    signal.NewInput[ir.Vector]("errorIN"),
		JacobianSIN: signal.NewInput[ir.Matrix]("jacobianIN"),
	}
	g.Abstract = NewAbstract(p, name, GenericClassName, g)
	g.RegisterSignals(p.Observer(), g.ErrorSIN, g.JacobianSIN)

	g.ErrorSOUT.AddDependency(g.ErrorSIN)
	g.DimensionSOUT.AddDependency(g.ErrorSIN)
	g.JacobianSOUT.AddDependency(g.JacobianSIN, g.DimensionSOUT)

	if err := Register(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Dimension implements Computer.
func (g *Generic) Dimension(_ int, t ir.Time) (int, error) {
	fl, err := g.SelectionSIN.Access(t)
	if err != nil {
		return 0, err
	}
	e, err := g.ErrorSIN.Access(t)
	if err != nil {
		return 0, err
	}
	return fl.Count(len(e)), nil
}

// ComputeError implements Computer.
func (g *Generic) ComputeError(_ ir.Vector, t ir.Time) (ir.Vector, error) {
	fl, err := g.SelectionSIN.Access(t)
	if err != nil {
		return nil, err
	}
	e, err := g.ErrorSIN.Access(t)
	if err != nil {
		return nil, err
	}
	idx := fl.Selected(len(e))

	ref, ok := g.Reference().(*Generic)
	if !ok || ref == nil {
		return e.Select(idx), nil
	}

	des, err := ref.ErrorSIN.Access(t)
	if err != nil {
		return nil, err
	}
	if len(des) != len(e) {
		return nil, ir.NewDimensionError(g.Name(), t,
			"errorIN size %d incompatible with %s errorIN size %d", len(e), ref.Name(), len(des))
	}
	return e.Select(idx).Sub(des.Select(idx)), nil
}

// ComputeJacobian implements Computer.
func (g *Generic) ComputeJacobian(_ ir.Matrix, t ir.Time) (ir.Matrix, error) {
	fl, err := g.SelectionSIN.Access(t)
	if err != nil {
		return ir.Matrix{}, err
	}
	dim, err := g.DimensionSOUT.Access(t)
	if err != nil {
		return ir.Matrix{}, err
	}
	j, err := g.JacobianSIN.Access(t)
	if err != nil {
		return ir.Matrix{}, err
	}
	rows, _ := j.Dims()
	idx := fl.Selected(rows)
	if len(idx) != dim {
		return ir.Matrix{}, ir.NewDimensionError(g.Name(), t,
			"selection picks %d rows of jacobianIN, dimension is %d", len(idx), dim)
	}
	return j.SelectRows(idx), nil
}
