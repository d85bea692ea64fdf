package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/sigflow/internal/compiler"
	"github.com/roach88/sigflow/internal/factory"
	"github.com/roach88/sigflow/internal/ir"
	"github.com/roach88/sigflow/internal/pool"
)

// loadedGraph is a graph directory compiled, validated and built into a pool.
type loadedGraph struct {
	Spec *ir.GraphSpec
	Pool *pool.Pool
}

// loadGraph compiles dir and builds it into a fresh pool created with opts.
// Load and validation errors map to ExitCommandError and ExitFailure
// respectively; build errors to ExitFailure.
func loadGraph(dir string, opts ...pool.Option) (*loadedGraph, error) {
	res, err := compiler.LoadGraph(dir, compiler.LoadModeFailFast)
	if err != nil {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Code == compiler.ErrCodeCompile {
			return nil, WrapExitError(ExitFailure, "compile failed", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to load graph", err)
	}

	if verrs := compiler.Validate(res.Spec); len(verrs) > 0 {
		return nil, WrapExitError(ExitFailure,
			fmt.Sprintf("invalid graph (%d errors)", len(verrs)), verrs[0])
	}

	p := pool.New(opts...)
	if err := factory.Default().Build(p, res.Spec); err != nil {
		return nil, WrapExitError(ExitFailure, "failed to build graph", err)
	}
	return &loadedGraph{Spec: res.Spec, Pool: p}, nil
}

// errorCode returns the code to report for err: the graph error code when
// there is one, fallback otherwise.
func errorCode(err error, fallback string) string {
	if code := ir.ErrorCode(err); code != "" {
		return string(code)
	}
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return fallback
}
