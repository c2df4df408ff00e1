// Package arrayset implements ArrayND, an N-dimensional numeric buffer used
// for tally channels and precomputed physics tables.
//
// The source design shares ArrayND's buffer by reference, which is useful
// for read-only tables handed out to worker clones but dangerous for
// mutable accumulators. Here every ArrayND owns its buffer: New always
// allocates an independent one and Clone makes a deep copy, so nothing is
// aliased. There is no separate read-only view type; a table built once
// and only read afterwards is shared by handing out the same *ArrayND.
package arrayset

import "golang.org/x/exp/constraints"

// Number is the element type constraint for ArrayND: anything the tally and
// table code needs (float32/float64 tables, plus integer histogram bins).
type Number interface {
	constraints.Float | constraints.Integer
}

// ArrayND is a row-major, fixed-shape dense numeric buffer.
type ArrayND[T Number] struct {
	dim    []int
	stride []int
	buf    []T
}

func calcStride(dim []int) []int {
	s := make([]int, len(dim))
	acc := 1
	for i := len(dim) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= dim[i]
	}
	return s
}

func calcSize(dim []int) int {
	n := 1
	for _, d := range dim {
		n *= d
	}
	return n
}

// New allocates a zeroed ArrayND with the given shape.
func New[T Number](dim ...int) *ArrayND[T] {
	return &ArrayND[T]{
		dim:    append([]int(nil), dim...),
		stride: calcStride(dim),
		buf:    make([]T, calcSize(dim)),
	}
}

// Dim returns the shape.
func (a *ArrayND[T]) Dim() []int { return a.dim }

// Len returns the total number of elements.
func (a *ArrayND[T]) Len() int { return len(a.buf) }

// Data exposes the underlying flat buffer (row-major).
func (a *ArrayND[T]) Data() []T { return a.buf }

// idx computes the flat offset for a multi-index.
func (a *ArrayND[T]) idx(index []int) int {
	k := 0
	for i, v := range index {
		k += v * a.stride[i]
	}
	return k
}

// At returns the element at the given multi-index.
func (a *ArrayND[T]) At(index ...int) T {
	return a.buf[a.idx(index)]
}

// Set assigns the element at the given multi-index.
func (a *ArrayND[T]) Set(v T, index ...int) {
	a.buf[a.idx(index)] = v
}

// Add accumulates v into the element at the given multi-index.
func (a *ArrayND[T]) Add(v T, index ...int) {
	a.buf[a.idx(index)] += v
}

// Zero clears the buffer in place.
func (a *ArrayND[T]) Zero() {
	for i := range a.buf {
		a.buf[i] = 0
	}
}

// Clone returns an independent deep copy.
func (a *ArrayND[T]) Clone() *ArrayND[T] {
	b := &ArrayND[T]{
		dim:    append([]int(nil), a.dim...),
		stride: append([]int(nil), a.stride...),
		buf:    make([]T, len(a.buf)),
	}
	copy(b.buf, a.buf)
	return b
}

// AddFrom adds other's elements into this array in place: a += other.
// Panics if the shapes differ (a programmer error, never a runtime
// condition on real tally data).
func (a *ArrayND[T]) AddFrom(other *ArrayND[T]) {
	if len(a.buf) != len(other.buf) {
		panic("arrayset: shape mismatch in AddFrom")
	}
	for i, v := range other.buf {
		a.buf[i] += v
	}
}

// AddSquaredFrom adds the elementwise square of other into this array:
// a += other ⊙ other. Used to maintain the sum-of-squares companion buffer
// for variance estimation.
func (a *ArrayND[T]) AddSquaredFrom(other *ArrayND[T]) {
	if len(a.buf) != len(other.buf) {
		panic("arrayset: shape mismatch in AddSquaredFrom")
	}
	for i, v := range other.buf {
		a.buf[i] += v * v
	}
}
