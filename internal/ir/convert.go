package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Convert turns a loosely typed value (decoded from CUE, YAML, JSON or a
// command line argument) into a T.
//
// Supported targets: Vector, Flags, Matrix, int, float64, bool, string.
// Strings are parsed: vectors and matrices as JSON arrays, flags in their
// text form, scalars with strconv.
func Convert[T any](v any) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}

	var out any
	var err error
	switch any(zero).(type) {
	case Vector:
		out, err = toVector(v)
	case Flags:
		out, err = toFlags(v)
	case Matrix:
		out, err = toMatrix(v)
	case int:
		out, err = toInt(v)
	case float64:
		out, err = toFloat(v)
	case bool:
		out, err = toBool(v)
	case string:
		out = fmt.Sprint(v)
	default:
		return zero, fmt.Errorf("no conversion to %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to an integer", v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q", x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("cannot convert %T to a boolean", v)
	}
}

func toVector(v any) (Vector, error) {
	switch x := v.(type) {
	case []float64:
		return Vector(x).Clone(), nil
	case []any:
		out := make(Vector, len(x))
		for i, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return nil, fmt.Errorf("vector[%d]: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case string:
		var raw []float64
		if err := json.Unmarshal([]byte(x), &raw); err != nil {
			return nil, fmt.Errorf("invalid vector %q: %w", x, err)
		}
		return Vector(raw), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to a vector", v)
	}
}

func toFlags(v any) (Flags, error) {
	switch x := v.(type) {
	case string:
		return ParseFlags(x)
	case bool:
		return AllFlags(x), nil
	case []bool:
		return NewFlags(x...), nil
	case []any:
		bits := make([]bool, len(x))
		for i, e := range x {
			b, err := toBool(e)
			if err != nil {
				return Flags{}, fmt.Errorf("flags[%d]: %w", i, err)
			}
			bits[i] = b
		}
		return NewFlags(bits...), nil
	default:
		return Flags{}, fmt.Errorf("cannot convert %T to flags", v)
	}
}

func toMatrix(v any) (Matrix, error) {
	switch x := v.(type) {
	case [][]float64:
		return MatrixFromRows(x)
	case []any:
		rows := make([][]float64, len(x))
		for i, r := range x {
			row, err := toVector(r)
			if err != nil {
				return Matrix{}, fmt.Errorf("matrix row %d: %w", i, err)
			}
			rows[i] = row
		}
		return MatrixFromRows(rows)
	case string:
		var raw [][]float64
		if err := json.Unmarshal([]byte(x), &raw); err != nil {
			return Matrix{}, fmt.Errorf("invalid matrix %q: %w", x, err)
		}
		return MatrixFromRows(raw)
	default:
		return Matrix{}, fmt.Errorf("cannot convert %T to a matrix", v)
	}
}
