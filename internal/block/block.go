// Package block provides the bundled architecture blocks: one default
// encoder per input kind, the merge block that joins multiple encoded
// inputs, and the supervised heads. Blocks declare their hyperparameter
// choice points; which option a trial uses is the tuner's decision.
package block

import (
	"github.com/archon-ml/archon/internal/graph"
)

// ImageEncoder is the default search block for image inputs.
type ImageEncoder struct {
	graph.BlockBase
}

// NewImageEncoder builds an image encoder block with the given name.
func NewImageEncoder(name string) *ImageEncoder {
	return &ImageEncoder{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "filters", Options: []float64{32, 64, 128}},
		{Name: "dropout", Options: []float64{0, 0.25, 0.5}},
	})}
}

// TextEncoder is the default search block for token-ID text inputs.
type TextEncoder struct {
	graph.BlockBase
}

// NewTextEncoder builds a text encoder block with the given name.
func NewTextEncoder(name string) *TextEncoder {
	return &TextEncoder{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "embedding_dim", Options: []float64{32, 64, 128}},
	})}
}

// StructuredEncoder is the default search block for tabular inputs.
type StructuredEncoder struct {
	graph.BlockBase
}

// NewStructuredEncoder builds a structured-data encoder block.
func NewStructuredEncoder(name string) *StructuredEncoder {
	return &StructuredEncoder{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "units", Options: []float64{16, 32, 64}},
		{Name: "layers", Options: []float64{1, 2}},
	})}
}

// TimeseriesEncoder is the default search block for sequential inputs.
type TimeseriesEncoder struct {
	graph.BlockBase
}

// NewTimeseriesEncoder builds a timeseries encoder block.
func NewTimeseriesEncoder(name string) *TimeseriesEncoder {
	return &TimeseriesEncoder{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "units", Options: []float64{32, 64}},
		{Name: "bidirectional", Options: []float64{0, 1}},
	})}
}

// Merge joins multiple encoded signals into one combined node.
type Merge struct {
	graph.BlockBase
}

// NewMerge builds a merge block with the given name.
func NewMerge(name string) *Merge {
	return &Merge{BlockBase: graph.NewBlockBase(name, []graph.HyperParam{
		{Name: "merge_type", Options: []float64{0, 1}}, // 0 concat, 1 add
	})}
}
