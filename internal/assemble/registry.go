package assemble

import (
	"fmt"

	"github.com/archon-ml/archon/internal/block"
	"github.com/archon-ml/archon/internal/graph"
)

// EncoderFactory builds the default encoder block for one input node.
// The node is provided so the block can be named after the input it
// serves, keeping hyperparameter names distinct across inputs.
type EncoderFactory func(input *graph.Node) graph.Block

// MergeFactory builds the block that joins multiple encoded inputs.
type MergeFactory func() graph.Block

// Registry maps input kinds to their default encoder factories. It is
// the single dispatch point for inferred assembly: a kind with no entry
// cannot be auto-encoded and fails assembly instead of being silently
// skipped.
type Registry struct {
	encoders map[graph.Kind]EncoderFactory
	merge    MergeFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{encoders: make(map[graph.Kind]EncoderFactory)}
}

// RegisterEncoder installs the default encoder factory for a kind. A
// duplicate registration is a programmer error and panics.
func (r *Registry) RegisterEncoder(k graph.Kind, f EncoderFactory) {
	if _, exists := r.encoders[k]; exists {
		panic(fmt.Sprintf("assemble: encoder for kind %q already registered", k))
	}
	r.encoders[k] = f
}

// RegisterMerge installs the merge factory. Panics on re-registration.
func (r *Registry) RegisterMerge(f MergeFactory) {
	if r.merge != nil {
		panic("assemble: merge factory already registered")
	}
	r.merge = f
}

// Defaults returns a registry wired with the bundled blocks: one encoder
// per recognized kind and the bundled merge block.
func Defaults() *Registry {
	r := NewRegistry()
	r.RegisterEncoder(graph.KindImage, func(in *graph.Node) graph.Block {
		return block.NewImageEncoder("image_encoder_" + in.Name())
	})
	r.RegisterEncoder(graph.KindText, func(in *graph.Node) graph.Block {
		return block.NewTextEncoder("text_encoder_" + in.Name())
	})
	r.RegisterEncoder(graph.KindStructured, func(in *graph.Node) graph.Block {
		return block.NewStructuredEncoder("structured_encoder_" + in.Name())
	})
	r.RegisterEncoder(graph.KindTimeseries, func(in *graph.Node) graph.Block {
		return block.NewTimeseriesEncoder("timeseries_encoder_" + in.Name())
	})
	r.RegisterMerge(func() graph.Block {
		return block.NewMerge("merge")
	})
	return r
}
