package compiler

import (
	"cuelang.org/go/cue"
)

// goValue converts a concrete CUE value into plain Go data: string, bool,
// int, float64, []any or map[string]any. ir.Convert takes it from there.
func goValue(v cue.Value) (any, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil

	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return int(i), nil

	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil

	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := []any{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil

	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := map[string]any{}
		for iter.Next() {
			e, err := goValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = e
		}
		return out, nil

	default:
		return nil, &CompileError{
			Field:   "value",
			Message: "value must be concrete (string, bool, number, list or struct), got " + v.IncompleteKind().String(),
			Pos:     v.Pos(),
		}
	}
}
