// Package tuner defines the narrow search-engine contract the
// orchestrator consumes, and bundles four reference strategies (greedy,
// random, hyperband, bayesian) that honor it. The bundled strategies
// share one trial loop over a simple trainable realization; anything
// smarter plugs in behind the same Tuner interface.
//
// All concurrency during a search belongs to the tuner; the orchestrator
// makes one blocking Search call and has no visibility into how trials
// overlap internally.
package tuner

import (
	"context"
	"strings"

	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/tensor"
)

// Direction says whether an objective is minimized or maximized.
type Direction int

const (
	DirectionMin Direction = iota
	DirectionMax
)

// Objective names the metric a search optimizes and its direction.
type Objective struct {
	Name      string
	Direction Direction
}

// ParseObjective resolves an objective name, inferring the direction the
// way practitioners expect: accuracy-like metrics are maximized, losses
// minimized.
func ParseObjective(name string) Objective {
	if name == "" {
		name = "val_loss"
	}
	dir := DirectionMin
	if strings.Contains(name, "accuracy") || strings.Contains(name, "auc") {
		dir = DirectionMax
	}
	return Objective{Name: name, Direction: dir}
}

// Metric strips the validation prefix, yielding the key to read from a
// model evaluation.
func (o Objective) Metric() string {
	return strings.TrimPrefix(o.Name, "val_")
}

// Better reports whether candidate improves on incumbent under the
// objective's direction.
func (o Objective) Better(candidate, incumbent float64) bool {
	if o.Direction == DirectionMax {
		return candidate > incumbent
	}
	return candidate < incumbent
}

// Options is the construction-time configuration passed through from the
// orchestrator unmodified.
type Options struct {
	ProjectName string
	Directory   string
	Objective   Objective
	MaxTrials   int
	Seed        int64
	Overwrite   bool
}

// Trial is the outcome of one trained candidate realization.
type Trial struct {
	ID     string
	Params map[string]float64
	Score  float64
	Epochs int
}

// Callback observes trial completions during a search.
type Callback interface {
	OnTrialEnd(t Trial)
}

// SearchRequest carries everything one Search call needs. The graph is
// shared read-only; the datasets are canonical and unbatched — batching
// happens inside the tuner, identically for train and validation data,
// using the requested batch size.
type SearchRequest struct {
	Graph      *graph.Graph
	Train      *dataset.Dataset
	Validation *dataset.Dataset
	Epochs     int
	BatchSize  int
	Callbacks  []Callback

	// FitOnValidation requests that the final fit of the best candidate
	// retrain on the reunited train+validation data; set when the
	// validation partition was carved out by a split fraction.
	FitOnValidation bool
}

// Model is a trained realization usable for prediction and evaluation.
type Model interface {
	// Predict returns one canonical output series per head, in declared
	// order, for the dataset's inputs.
	Predict(ctx context.Context, ds *dataset.Dataset, batchSize int) ([]tensor.Series, error)

	// Evaluate returns named metrics for a supervised dataset.
	Evaluate(ctx context.Context, ds *dataset.Dataset, batchSize int) (map[string]float64, error)
}

// Tuner is the external search engine contract. Search blocks until the
// trial budget is exhausted and is resumable: calling it again continues
// the same trial accounting. BestModel re-queries the current best
// realization, so later searches are reflected in earlier handles'
// callers.
type Tuner interface {
	Search(ctx context.Context, req SearchRequest) error
	BestModel(ctx context.Context) (Model, error)
}
