package adapter

import (
	"fmt"
	"math"
	"sort"

	"github.com/archon-ml/archon/internal/tensor"
)

func sqrtOr1(variance float64) float64 {
	std := math.Sqrt(variance)
	if std == 0 {
		return 1
	}
	return std
}

// Classification converts raw scalar labels into one-hot vectors and
// model output back into the original label values via argmax. The class
// set, and therefore the head's output cardinality, is learned from the
// fit pass.
type Classification struct {
	fitted  bool
	classes []float64       // sorted distinct labels
	index   map[float64]int // label -> class index
}

// NewClassification returns an unfitted label adapter.
func NewClassification() *Classification { return &Classification{} }

func (a *Classification) FitTransform(raw tensor.Series) (tensor.Series, error) {
	seen := map[float64]struct{}{}
	for _, t := range raw {
		if t.Size() != 1 {
			return nil, fmt.Errorf("adapter: classification labels must be scalar, got shape %v", t.Shape())
		}
		seen[t.Data()[0]] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("adapter: no labels to fit on")
	}
	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	index := make(map[float64]int, len(classes))
	for i, v := range classes {
		index[v] = i
	}
	a.classes, a.index = classes, index
	a.fitted = true
	return a.Transform(raw)
}

func (a *Classification) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	out := make(tensor.Series, 0, raw.Len())
	for _, t := range raw {
		if t.Size() != 1 {
			return nil, fmt.Errorf("adapter: classification labels must be scalar, got shape %v", t.Shape())
		}
		idx, ok := a.index[t.Data()[0]]
		if !ok {
			return nil, fmt.Errorf("adapter: label %v not seen during fit", t.Data()[0])
		}
		oneHot := make([]float64, len(a.classes))
		oneHot[idx] = 1
		enc, err := tensor.New([]int{len(a.classes)}, oneHot)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// Postprocess maps probability vectors back to the original labels by
// argmax, preserving the scalar shape labels were supplied in.
func (a *Classification) Postprocess(out tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	labels := make(tensor.Series, 0, out.Len())
	for _, t := range out {
		if t.Size() != len(a.classes) {
			return nil, fmt.Errorf("adapter: model output has %d classes, fitted on %d", t.Size(), len(a.classes))
		}
		best := 0
		for i, v := range t.Data() {
			if v > t.Data()[best] {
				best = i
			}
		}
		labels = append(labels, tensor.Scalar(a.classes[best]))
	}
	return labels, nil
}

func (a *Classification) Fitted() bool { return a.fitted }

func (a *Classification) Learned() Learned {
	return Learned{Shape: []int{len(a.classes)}, Cardinality: len(a.classes)}
}

// NumClasses returns the learned class count; zero before fitting.
func (a *Classification) NumClasses() int { return len(a.classes) }

// Regression standardizes regression targets to zero mean and unit
// variance, and denormalizes model output back to target units.
type Regression struct {
	fitted bool
	mean   float64
	std    float64
	shape  []int
}

// NewRegression returns an unfitted regression-target adapter.
func NewRegression() *Regression { return &Regression{} }

func (a *Regression) FitTransform(raw tensor.Series) (tensor.Series, error) {
	shape, err := raw.ElementShape()
	if err != nil {
		return nil, err
	}
	var sum, count float64
	for _, t := range raw {
		for _, v := range t.Data() {
			sum += v
			count++
		}
	}
	mean := sum / count
	var variance float64
	for _, t := range raw {
		for _, v := range t.Data() {
			d := v - mean
			variance += d * d / count
		}
	}
	a.mean = mean
	a.std = sqrtOr1(variance)
	a.shape = shape
	a.fitted = true
	return a.Transform(raw)
}

func (a *Regression) Transform(raw tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	out := make(tensor.Series, 0, raw.Len())
	for _, t := range raw {
		data := make([]float64, t.Size())
		for i, v := range t.Data() {
			data[i] = (v - a.mean) / a.std
		}
		norm, err := tensor.New(t.Shape(), data)
		if err != nil {
			return nil, err
		}
		out = append(out, norm)
	}
	return out, nil
}

func (a *Regression) Postprocess(out tensor.Series) (tensor.Series, error) {
	if !a.fitted {
		return nil, ErrUnfitted
	}
	denorm := make(tensor.Series, 0, out.Len())
	for _, t := range out {
		data := make([]float64, t.Size())
		for i, v := range t.Data() {
			data[i] = v*a.std + a.mean
		}
		orig, err := tensor.New(t.Shape(), data)
		if err != nil {
			return nil, err
		}
		denorm = append(denorm, orig)
	}
	return denorm, nil
}

func (a *Regression) Fitted() bool { return a.fitted }

func (a *Regression) Learned() Learned {
	return Learned{Shape: a.shape}
}
