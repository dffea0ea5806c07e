package tensor

import (
	"fmt"
	"slices"
)

// Shape lists the size of each axis, outermost first. Sizes may be zero, so an
// empty sequence [0, features] is a valid shape.
type Shape []int

// NumElements is the product of the sizes; 1 for a scalar.
func (s Shape) NumElements() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Rank is the number of axes.
func (s Shape) Rank() int { return len(s) }

// Validate rejects negative sizes.
func (s Shape) Validate() error {
	if i := slices.IndexFunc(s, func(d int) bool { return d < 0 }); i >= 0 {
		return fmt.Errorf("shape %v: axis %d has negative size", []int(s), i)
	}
	return nil
}

// Equal reports whether s and other have the same sizes.
func (s Shape) Equal(other Shape) bool { return slices.Equal(s, other) }

// Clone copies s; the result never aliases s, even when s is nil.
func (s Shape) Clone() Shape { return append(Shape{}, s...) }

// Axis maps a negative axis to its position from the end and panics when the
// result falls outside s.
func (s Shape) Axis(axis int) int {
	resolved := axis
	if resolved < 0 {
		resolved += len(s)
	}
	if resolved < 0 || resolved >= len(s) {
		panic(fmt.Sprintf("axis %d out of range for shape %v", axis, s))
	}
	return resolved
}

// ComputeStrides returns the row-major element step of each axis.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// BroadcastShapes aligns a and b at their trailing axes, treats missing
// leading axes as size 1 and stretches size-1 axes to match. The flag reports
// whether either operand had to be stretched or padded.
//
//	[3, 1] with [3, 5] → [3, 5], true
//	[5]    with [2, 5] → [2, 5], true
//	[3, 4] with [3, 5] → error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	pa, pb := padLeading(a, rank), padLeading(b, rank)
	out := make(Shape, rank)
	stretched := len(a) != len(b)
	for i := range out {
		switch x, y := pa[i], pb[i]; {
		case x == y:
			out[i] = x
		case x == 1:
			out[i], stretched = y, true
		case y == 1:
			out[i], stretched = x, true
		default:
			return nil, false, fmt.Errorf("cannot broadcast %v with %v: axis %d has sizes %d and %d", a, b, i, x, y)
		}
	}
	return out, stretched, nil
}

// padLeading prefixes s with size-1 axes up to rank.
func padLeading(s Shape, rank int) Shape {
	out := make(Shape, rank-len(s), rank)
	for i := range out {
		out[i] = 1
	}
	return append(out, s...)
}
