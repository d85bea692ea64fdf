package source

import (
	"gonum.org/v1/gonum/floats"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// VectorRamp outputs base + t*rate.
type VectorRamp struct {
	*entity.Base

	BaseSIN *signal.Signal[ir.Vector]
	RateSIN *signal.Signal[ir.Vector]
	SOUT    *signal.Signal[ir.Vector]
}

// NewVectorRamp creates a VectorRamp and registers it in p.
func NewVectorRamp(p *pool.Pool, name string) (*VectorRamp, error) {
	r := &VectorRamp{
		Base:    entity.NewBase(name, VectorRampClass),
		BaseSIN: signal.NewInput[ir.Vector]("base"),
		RateSIN: signal.NewInput[ir.Vector]("rate"),
	}
	r.SOUT = signal.NewSignal(SignalOut, r.compute, r.BaseSIN, r.RateSIN)
	r.RegisterSignals(p.Observer(), r.BaseSIN, r.RateSIN, r.SOUT)

	if err := p.Register(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *VectorRamp) compute(_ ir.Vector, t ir.Time) (ir.Vector, error) {
	base, err := r.BaseSIN.Access(t)
	if err != nil {
		return nil, err
	}
	rate, err := r.RateSIN.Access(t)
	if err != nil {
		return nil, err
	}
	if len(base) != len(rate) {
		return nil, ir.NewDimensionError(r.Name(), t,
			"base size %d incompatible with rate size %d", len(base), len(rate))
	}
	out := make(ir.Vector, len(base))
	floats.AddScaledTo(out, base, float64(t), rate)
	return out, nil
}
