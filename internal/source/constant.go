package source

import (
	"strconv"

	"github.com/roach88/sigflow/internal/entity"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
	"github.com/roach88/sigflow/internal/signal"
)

// Class names.
const (
	VectorConstantClass = "VectorConstant"
	FlagsConstantClass  = "FlagsConstant"
	VectorRampClass     = "VectorRamp"
)

// SignalOut is the output signal of every source.
const SignalOut = "sout"

// VectorConstant outputs a constant vector.
type VectorConstant struct {
	*entity.Base
	SOUT *signal.Signal[ir.Vector]
}

// NewVectorConstant creates a VectorConstant and registers it in p.
// sout is unset until a value is stored.
func NewVectorConstant(p *pool.Pool, name string) (*VectorConstant, error) {
	c := &VectorConstant{
		Base: entity.NewBase(name, VectorConstantClass),
		SOUT: signal.NewInput[ir.Vector](SignalOut),
	}
	c.RegisterSignals(p.Observer(), c.SOUT)

	c.AddCommand(entity.Setter("resize",
		"Resize the output to n zeros.",
		func(arg string) error {
			n, err := strconv.Atoi(arg)
			if err != nil || n < 0 {
				return ir.NewDimensionError(c.Name(), ir.NoTime, "invalid size %q", arg)
			}
			c.SOUT.Set(ir.Zeros(n))
			return nil
		}))
	c.AddCommand(entity.Setter("set",
		"Set the output vector, written as a JSON array.",
		func(arg string) error {
			return c.SOUT.SetValue(arg)
		}))
	c.AddCommand(entity.Getter("get",
		"Get the output vector.",
		func() string {
			return c.SOUT.Value().String()
		}))

	if err := p.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Set stores v as the output.
func (c *VectorConstant) Set(v ir.Vector) {
	c.SOUT.Set(v)
}

// FlagsConstant outputs a constant selection mask.
type FlagsConstant struct {
	*entity.Base
	SOUT *signal.Signal[ir.Flags]
}

// NewFlagsConstant creates a FlagsConstant selecting everything and
// registers it in p.
func NewFlagsConstant(p *pool.Pool, name string) (*FlagsConstant, error) {
	c := &FlagsConstant{
		Base: entity.NewBase(name, FlagsConstantClass),
		SOUT: signal.NewInput[ir.Flags](SignalOut),
	}
	c.SOUT.Set(ir.AllFlags(true))
	c.RegisterSignals(p.Observer(), c.SOUT)

	c.AddCommand(entity.Setter("set",
		"Set the mask, e.g. 1010 or 01*.",
		func(arg string) error {
			return c.SOUT.SetValue(arg)
		}))
	c.AddCommand(entity.Getter("get",
		"Get the mask.",
		func() string {
			return c.SOUT.Value().String()
		}))

	if err := p.Register(c); err != nil {
		return nil, err
	}
	return c, nil
}
