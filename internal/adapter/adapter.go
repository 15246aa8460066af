// Package adapter defines the stateful raw-to-canonical data converters
// bound to one input slot or one head, plus the bundled converters for
// the built-in input kinds and heads.
//
// Every adapter is fit exactly once, on the first training pass, and is
// reused read-only afterwards. Transform before fit is an internal call
// ordering violation, surfaced as ErrUnfitted; the orchestrator's
// fit-before-transform discipline makes it unreachable in normal use.
package adapter

import (
	"errors"

	"github.com/archon-ml/archon/internal/tensor"
)

// ErrUnfitted is returned when Transform or Postprocess is invoked on an
// adapter that has not been fit.
var ErrUnfitted = errors.New("adapter: transform before fit")

// ErrNotOutput is returned when Postprocess is invoked on an input-side
// adapter.
var ErrNotOutput = errors.New("adapter: postprocess on an input-side adapter")

// Learned is the summary an adapter exposes to the search space after
// fitting: the canonical element shape it produces and, where it applies,
// a learned cardinality (vocabulary size, class count).
type Learned struct {
	Shape       []int
	Cardinality int
}

// Adapter converts one slot's raw user data to its canonical tensor form
// and, for output slots, canonical model output back to user-facing form.
type Adapter interface {
	// FitTransform learns the adapter's statistics from raw and returns
	// the canonical series. Must be called exactly once, before any
	// Transform or Postprocess.
	FitTransform(raw tensor.Series) (tensor.Series, error)

	// Transform applies the previously learned statistics read-only.
	// Transforming the same raw series twice yields identical output.
	Transform(raw tensor.Series) (tensor.Series, error)

	// Postprocess converts canonical model output into user-facing form.
	// Only valid on output-side adapters, and only after fitting.
	Postprocess(out tensor.Series) (tensor.Series, error)

	// Fitted reports whether FitTransform has run.
	Fitted() bool

	// Learned returns the post-fit summary for the search space.
	Learned() Learned
}
