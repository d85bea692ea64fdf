package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVector_Basics(t *testing.T) {
	v := Vector{0.1, 0.2, 0.3, 0.4}

	assert.Equal(t, 4, v.Len())
	assert.Equal(t, Vector{0.1, 0.3}, v.Select([]int{0, 2}))
	assert.Equal(t, "[0.1, 0.2, 0.3, 0.4]", v.String())
	assert.Equal(t, "[]", Vector{}.String())

	c := v.Clone()
	c[0] = 9
	assert.Equal(t, 0.1, v[0], "clone must not alias")
}

func TestVector_Sub(t *testing.T) {
	got := Vector{3, 5}.Sub(Vector{1, 2})
	assert.Equal(t, Vector{2, 3}, got)
}

func TestVector_Equal(t *testing.T) {
	assert.True(t, Vector{1, 2}.Equal(Vector{1, 2}))
	assert.False(t, Vector{1, 2}.Equal(Vector{1, 2, 3}))
	assert.True(t, Vector{}.Equal(nil))
	assert.True(t, Vector{0.1 + 0.2}.EqualApprox(Vector{0.3}, 1e-12))
}

func TestZeros(t *testing.T) {
	assert.Equal(t, Vector{0, 0, 0}, Zeros(3))
	assert.Equal(t, Vector{}, Zeros(0))
	assert.Equal(t, Vector{}, Zeros(-1))
}

func TestMatrix_SelectRows(t *testing.T) {
	m, err := MatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)

	sel := m.SelectRows([]int{0, 2})
	r, c := sel.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, [][]float64{{1, 2}, {5, 6}}, sel.Rows())
	assert.Equal(t, "[[1, 2], [5, 6]]", sel.String())
}

func TestMatrix_ZeroSized(t *testing.T) {
	m, err := NewMatrix(0, 3, nil)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 3, c)

	empty := m.SelectRows(nil)
	assert.True(t, empty.Equal(m))
	assert.Equal(t, "[]", empty.String())

	var zero Matrix
	assert.True(t, zero.Equal(Matrix{}))
}

func TestMatrix_Errors(t *testing.T) {
	_, err := NewMatrix(2, 2, []float64{1, 2, 3})
	require.Error(t, err)

	_, err = MatrixFromRows([][]float64{{1, 2}, {3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestMatrix_Equal(t *testing.T) {
	a, _ := MatrixFromRows([][]float64{{1, 0}, {0, 1}})
	b, _ := NewMatrix(2, 2, []float64{1, 0, 0, 1})
	c, _ := NewMatrix(1, 4, []float64{1, 0, 0, 1})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
