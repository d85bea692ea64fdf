package ir

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Vector is a dense column of float64 values.
//
// The nil Vector is a valid empty vector.
type Vector []float64

// Zeros returns a vector of n zeros.
func Zeros(n int) Vector {
	if n <= 0 {
		return Vector{}
	}
	return make(Vector, n)
}

// Len returns the number of components.
func (v Vector) Len() int {
	return len(v)
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Equal reports whether v and o have the same length and identical components.
func (v Vector) Equal(o Vector) bool {
	if len(v) != len(o) {
		return false
	}
	return floats.Equal(v, o)
}

// EqualApprox reports whether v and o match within tol, component-wise.
func (v Vector) EqualApprox(o Vector, tol float64) bool {
	if len(v) != len(o) {
		return false
	}
	return floats.EqualApprox(v, o, tol)
}

// Sub returns v - o. Both vectors must have the same length.
func (v Vector) Sub(o Vector) Vector {
	out := make(Vector, len(v))
	floats.SubTo(out, v, o)
	return out
}

// Select returns the components at the given indices, in order.
func (v Vector) Select(idx []int) Vector {
	out := make(Vector, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

// String renders the vector as "[a, b, c]".
func (v Vector) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
