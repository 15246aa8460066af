package block

import (
	"github.com/archon-ml/archon/internal/adapter"
	"github.com/archon-ml/archon/internal/graph"
)

// ClassificationHead is the supervised head for one classification task.
// Its class count is unknown until the output adapter has been fit; the
// pipeline pushes it back in through ConfigFromAdapter before trials run.
type ClassificationHead struct {
	graph.BlockBase
	numClasses int
}

// NewClassificationHead builds a classification head with the given name.
func NewClassificationHead(name string) *ClassificationHead {
	return &ClassificationHead{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "learning_rate", Options: []float64{0.1, 0.01, 0.001}},
		{Name: "dropout", Options: []float64{0, 0.25}},
	})}
}

// NewAdapter returns an unfitted label adapter owned by this head.
func (h *ClassificationHead) NewAdapter() adapter.Adapter {
	return adapter.NewClassification()
}

// ConfigFromAdapter records the learned class count from a fitted
// classification adapter.
func (h *ClassificationHead) ConfigFromAdapter(a adapter.Adapter) {
	h.numClasses = a.Learned().Cardinality
}

// NumClasses returns the class count learned from data; zero before the
// first fit pass.
func (h *ClassificationHead) NumClasses() int { return h.numClasses }

func (h *ClassificationHead) Loss() string   { return "categorical_crossentropy" }
func (h *ClassificationHead) Metric() string { return "accuracy" }

// RegressionHead is the supervised head for one regression task.
type RegressionHead struct {
	graph.BlockBase
	outputShape []int
}

// NewRegressionHead builds a regression head with the given name.
func NewRegressionHead(name string) *RegressionHead {
	return &RegressionHead{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "learning_rate", Options: []float64{0.1, 0.01, 0.001}},
	})}
}

// NewAdapter returns an unfitted regression-target adapter.
func (h *RegressionHead) NewAdapter() adapter.Adapter {
	return adapter.NewRegression()
}

// ConfigFromAdapter records the learned target shape.
func (h *RegressionHead) ConfigFromAdapter(a adapter.Adapter) {
	h.outputShape = a.Learned().Shape
}

// OutputShape returns the target shape learned from data; nil before the
// first fit pass.
func (h *RegressionHead) OutputShape() []int { return h.outputShape }

func (h *RegressionHead) Loss() string   { return "mse" }
func (h *RegressionHead) Metric() string { return "mse" }
