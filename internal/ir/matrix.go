package ir

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major float64 matrix.
//
// Matrix wraps a gonum mat.Dense. gonum refuses zero-sized matrices, so a
// Matrix with zero rows or columns keeps its shape without a backing Dense.
// The zero Matrix is a valid 0x0 matrix.
type Matrix struct {
	rows, cols int
	d          *mat.Dense
}

// NewMatrix builds an r x c matrix from row-major data.
// data may be nil, in which case the matrix is zero-filled.
func NewMatrix(r, c int, data []float64) (Matrix, error) {
	if r < 0 || c < 0 {
		return Matrix{}, fmt.Errorf("negative matrix shape %dx%d", r, c)
	}
	if data != nil && len(data) != r*c {
		return Matrix{}, fmt.Errorf("matrix data has %d elements, want %d for %dx%d", len(data), r*c, r, c)
	}
	if r == 0 || c == 0 {
		return Matrix{rows: r, cols: c}, nil
	}
	var cp []float64
	if data != nil {
		cp = make([]float64, len(data))
		copy(cp, data)
	}
	return Matrix{rows: r, cols: c, d: mat.NewDense(r, c, cp)}, nil
}

// MatrixFromRows builds a matrix from a slice of equally sized rows.
func MatrixFromRows(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return Matrix{}, fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	return NewMatrix(len(rows), c, data)
}

// Dims returns the number of rows and columns.
func (m Matrix) Dims() (int, int) {
	return m.rows, m.cols
}

// At returns the element at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	if m.d == nil {
		return make([]float64, m.cols)
	}
	return mat.Row(nil, i, m.d)
}

// SelectRows returns the matrix made of the given rows, in order.
func (m Matrix) SelectRows(idx []int) Matrix {
	if len(idx) == 0 || m.cols == 0 {
		return Matrix{rows: len(idx), cols: m.cols}
	}
	out := mat.NewDense(len(idx), m.cols, nil)
	for i, r := range idx {
		out.SetRow(i, mat.Row(nil, r, m.d))
	}
	return Matrix{rows: len(idx), cols: m.cols, d: out}
}

// Equal reports whether m and o have the same shape and elements.
func (m Matrix) Equal(o Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	if m.d == nil || o.d == nil {
		return m.d == nil && o.d == nil
	}
	return mat.Equal(m.d, o.d)
}

// Rows returns the matrix as a slice of row copies.
func (m Matrix) Rows() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// String renders the matrix as "[[a, b], [c, d]]".
func (m Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		for j, x := range m.Row(i) {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}
