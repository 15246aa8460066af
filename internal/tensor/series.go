package tensor

import (
	"errors"
	"fmt"
)

// ErrRaggedSeries is returned when the elements of a series disagree on shape.
var ErrRaggedSeries = errors.New("tensor: series elements have mixed shapes")

// Series is an ordered column of same-shaped tensors: one slot's worth of
// examples. It is the raw per-slot format users hand to the data pipeline
// and the canonical per-slot format datasets store.
type Series []Tensor

// Len returns the number of examples in the series.
func (s Series) Len() int { return len(s) }

// ElementShape returns the common shape of the series' elements, or an
// error if the series is empty or ragged.
func (s Series) ElementShape() ([]int, error) {
	if len(s) == 0 {
		return nil, errors.New("tensor: element shape of empty series")
	}
	first := s[0]
	for i := 1; i < len(s); i++ {
		if !SameShape(first, s[i]) {
			return nil, fmt.Errorf("%w: element 0 is %v, element %d is %v",
				ErrRaggedSeries, first.Shape(), i, s[i].Shape())
		}
	}
	return first.Shape(), nil
}

// Slice returns the subseries [from, to). The backing tensors are shared.
func (s Series) Slice(from, to int) Series {
	return s[from:to]
}

// Stack combines the series' elements into a single tensor with a new
// leading batch dimension. All elements must share a shape.
func (s Series) Stack() (Tensor, error) {
	shape, err := s.ElementShape()
	if err != nil {
		return Tensor{}, err
	}
	elemSize := 1
	for _, d := range shape {
		elemSize *= d
	}
	data := make([]float64, 0, elemSize*len(s))
	for _, t := range s {
		data = append(data, t.data...)
	}
	return New(append([]int{len(s)}, shape...), data)
}

// FromMatrix builds a series of rank-1 tensors from rows of values.
func FromMatrix(rows [][]float64) Series {
	out := make(Series, 0, len(rows))
	for _, row := range rows {
		out = append(out, MustNew([]int{len(row)}, append([]float64(nil), row...)))
	}
	return out
}

// FromValues builds a series of scalar tensors, one per value.
func FromValues(values []float64) Series {
	out := make(Series, 0, len(values))
	for _, v := range values {
		out = append(out, Scalar(v))
	}
	return out
}
