// Package tensor holds the minimal numeric containers the rest of the
// system moves around: a shaped float64 tensor and an ordered series of
// same-shaped tensors. Datasets, adapters, and models all speak in these
// two types; nothing here knows about graphs or search.
package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeData is returned when a tensor's data length does not match
// the product of its shape.
var ErrShapeData = errors.New("tensor: data length does not match shape")

// Tensor is one shaped signal: a flat float64 buffer plus its dimensions.
// A scalar has an empty shape and a single data element. The zero value
// is an empty scalar-shaped tensor and is not generally useful.
type Tensor struct {
	shape []int
	data  []float64
}

// New builds a tensor from a shape and a flat data buffer. The buffer is
// retained, not copied; callers must not mutate it afterwards.
func New(shape []int, data []float64) (Tensor, error) {
	size := 1
	for _, d := range shape {
		if d < 0 {
			return Tensor{}, fmt.Errorf("tensor: negative dimension %d in shape %v", d, shape)
		}
		size *= d
	}
	if size != len(data) {
		return Tensor{}, fmt.Errorf("%w: shape %v wants %d values, got %d", ErrShapeData, shape, size, len(data))
	}
	return Tensor{shape: append([]int(nil), shape...), data: data}, nil
}

// MustNew is New for literals in tests and defaults; it panics on a
// shape/data mismatch.
func MustNew(shape []int, data []float64) Tensor {
	t, err := New(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar wraps a single value as a zero-dimensional tensor.
func Scalar(v float64) Tensor {
	return Tensor{shape: []int{}, data: []float64{v}}
}

// Zeros returns a zero-filled tensor of the given shape.
func Zeros(shape ...int) Tensor {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return Tensor{shape: append([]int(nil), shape...), data: make([]float64, size)}
}

// Shape returns a copy of the tensor's dimensions.
func (t Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Size is the number of elements (product of the shape).
func (t Tensor) Size() int {
	return len(t.data)
}

// Data exposes the underlying buffer. Read-only by convention.
func (t Tensor) Data() []float64 {
	return t.data
}

// Clone returns a deep copy of the tensor.
func (t Tensor) Clone() Tensor {
	return Tensor{
		shape: append([]int(nil), t.shape...),
		data:  append([]float64(nil), t.data...),
	}
}

// SameShape reports whether two tensors have identical dimensions.
func SameShape(a, b Tensor) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return true
}

// Equal reports shape and bitwise value equality.
func Equal(a, b Tensor) bool {
	if !SameShape(a, b) {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}
