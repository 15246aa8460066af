package adapter

import (
	"fmt"
	"math"

	"github.com/archon-ml/archon/internal/tensor"
)

// Image scales raw pixel data into [0, 1] by the maximum absolute value
// seen during fitting.
type Image struct {
	fitted bool
	scale  float64
	shape  []int
}

// NewImage returns an unfitted image adapter.
func NewImage() *Image { return &Image{} }

func (a *Image) FitTransform(raw tensor.Series) (tensor.Series, error) {
	shape, err := raw.ElementShape()
	if err != nil {
		return nil, err
	}
	maxAbs := 0.0
	for _, t := range raw {
		for _, v := range t.Data() {
			if v < 0 {
				v = -v
			}
			if v > maxAbs {
				maxAbs = v
			}
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}
	a.scale = maxAbs
	a.shape = shape
	a.fitted = true
	return a.Transform(raw)
}

func (a *Image) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	out := make(tensor.Series, 0, raw.Len())
	for _, t := range raw {
		data := make([]float64, t.Size())
		for i, v := range t.Data() {
			data[i] = v / a.scale
		}
		scaled, err := tensor.New(t.Shape(), data)
		if err != nil {
			return nil, err
		}
		out = append(out, scaled)
	}
	return out, nil
}

func (a *Image) Postprocess(tensor.Series) (tensor.Series, error) { return nil, ErrNotOutput }
func (a *Image) Fitted() bool                                     { return a.fitted }
func (a *Image) Learned() Learned                                 { return Learned{Shape: a.shape} }

// Text treats raw data as integer token IDs and learns the vocabulary
// size (max ID + 1). Values pass through unchanged; the learned
// cardinality feeds the search space.
type Text struct {
	fitted    bool
	vocabSize int
	shape     []int
}

// NewText returns an unfitted text adapter.
func NewText() *Text { return &Text{} }

func (a *Text) FitTransform(raw tensor.Series) (tensor.Series, error) {
	shape, err := raw.ElementShape()
	if err != nil {
		return nil, err
	}
	maxID := 0.0
	for _, t := range raw {
		for _, v := range t.Data() {
			if v < 0 {
				return nil, fmt.Errorf("adapter: negative token id %v", v)
			}
			if v > maxID {
				maxID = v
			}
		}
	}
	a.vocabSize = int(maxID) + 1
	a.shape = shape
	a.fitted = true
	return a.Transform(raw)
}

func (a *Text) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	return raw, nil
}

func (a *Text) Postprocess(tensor.Series) (tensor.Series, error) { return nil, ErrNotOutput }
func (a *Text) Fitted() bool                                     { return a.fitted }
func (a *Text) Learned() Learned {
	return Learned{Shape: a.shape, Cardinality: a.vocabSize}
}

// Structured normalizes each column of tabular rows to zero mean and
// unit variance using statistics from the fit pass.
type Structured struct {
	fitted bool
	mean   []float64
	std    []float64
	shape  []int
}

// NewStructured returns an unfitted structured-data adapter.
func NewStructured() *Structured { return &Structured{} }

func (a *Structured) FitTransform(raw tensor.Series) (tensor.Series, error) {
	shape, err := raw.ElementShape()
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("adapter: structured data must be rank-1 rows, got shape %v", shape)
	}
	width := shape[0]
	n := float64(raw.Len())
	mean := make([]float64, width)
	for _, t := range raw {
		for i, v := range t.Data() {
			mean[i] += v / n
		}
	}
	std := make([]float64, width)
	for _, t := range raw {
		for i, v := range t.Data() {
			d := v - mean[i]
			std[i] += d * d / n
		}
	}
	for i := range std {
		std[i] = math.Sqrt(std[i])
		if std[i] == 0 {
			std[i] = 1
		}
	}
	a.mean, a.std, a.shape = mean, std, shape
	a.fitted = true
	return a.Transform(raw)
}

func (a *Structured) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	out := make(tensor.Series, 0, raw.Len())
	for _, t := range raw {
		if t.Size() != len(a.mean) {
			return nil, fmt.Errorf("adapter: structured row has %d columns, fitted on %d", t.Size(), len(a.mean))
		}
		data := make([]float64, t.Size())
		for i, v := range t.Data() {
			data[i] = (v - a.mean[i]) / a.std[i]
		}
		row, err := tensor.New(t.Shape(), data)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (a *Structured) Postprocess(tensor.Series) (tensor.Series, error) { return nil, ErrNotOutput }
func (a *Structured) Fitted() bool                                     { return a.fitted }
func (a *Structured) Learned() Learned                                 { return Learned{Shape: a.shape} }

// Generic passes data through unchanged. It still honors the
// fit-before-transform contract so call ordering bugs surface uniformly.
type Generic struct {
	fitted bool
	shape  []int
}

// NewGeneric returns an unfitted pass-through adapter.
func NewGeneric() *Generic { return &Generic{} }

func (a *Generic) FitTransform(raw tensor.Series) (tensor.Series, error) {
	shape, err := raw.ElementShape()
	if err != nil {
		return nil, err
	}
	a.shape = shape
	a.fitted = true
	return raw, nil
}

func (a *Generic) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	return raw, nil
}

func (a *Generic) Postprocess(tensor.Series) (tensor.Series, error) { return nil, ErrNotOutput }
func (a *Generic) Fitted() bool                                     { return a.fitted }
func (a *Generic) Learned() Learned                                 { return Learned{Shape: a.shape} }
