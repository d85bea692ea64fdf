package ir

import (
	"fmt"
	"strings"
)

// Flags is a selection mask over the components of an error vector.
//
// Positions below Len() hold explicit bits. Every position at or past Len()
// reads as the tail value, so AllFlags(true) selects every component of a
// vector of any size.
//
// Text form: one '0' or '1' per explicit bit, followed by '*' when the tail
// is true. "1010" selects components 0 and 2; "*" selects everything.
type Flags struct {
	bits []bool
	tail bool
}

// NewFlags builds a mask from explicit bits with a false tail.
func NewFlags(bits ...bool) Flags {
	cp := make([]bool, len(bits))
	copy(cp, bits)
	return Flags{bits: cp}
}

// AllFlags returns a mask with no explicit bits whose every position reads b.
func AllFlags(b bool) Flags {
	return Flags{tail: b}
}

// ParseFlags parses the text form of a mask.
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	var f Flags
	if strings.HasSuffix(s, "*") {
		f.tail = true
		s = strings.TrimSuffix(s, "*")
	}
	f.bits = make([]bool, 0, len(s))
	for i, c := range s {
		switch c {
		case '0':
			f.bits = append(f.bits, false)
		case '1':
			f.bits = append(f.bits, true)
		default:
			return Flags{}, fmt.Errorf("invalid flag character %q at position %d", c, i)
		}
	}
	return f, nil
}

// At reports whether position i is selected.
func (f Flags) At(i int) bool {
	if i < 0 {
		return false
	}
	if i < len(f.bits) {
		return f.bits[i]
	}
	return f.tail
}

// Len returns the number of explicit bits.
func (f Flags) Len() int {
	return len(f.bits)
}

// Tail returns the value read past the explicit bits.
func (f Flags) Tail() bool {
	return f.tail
}

// Count returns how many of the positions 0..n-1 are selected.
func (f Flags) Count(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if f.At(i) {
			c++
		}
	}
	return c
}

// Selected returns the selected positions among 0..n-1 in ascending order.
func (f Flags) Selected(n int) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if f.At(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Equal reports whether f and o select the same positions.
func (f Flags) Equal(o Flags) bool {
	if f.tail != o.tail {
		return false
	}
	n := max(len(f.bits), len(o.bits))
	for i := 0; i < n; i++ {
		if f.At(i) != o.At(i) {
			return false
		}
	}
	return true
}

// String returns the text form accepted by ParseFlags.
func (f Flags) String() string {
	var b strings.Builder
	for _, bit := range f.bits {
		if bit {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	if f.tail {
		b.WriteByte('*')
	}
	return b.String()
}
