// Package assemble builds exactly one valid graph from user-declared
// inputs and outputs. The mode is decided once: when every output is an
// already-wired node the declaration is functional and no structural
// inference happens; when every output is a bare head the architecture
// between inputs and heads is inferred from the kind registry. A mix of
// the two fails fast, before any block is instantiated.
package assemble

import (
	"errors"
	"fmt"

	"github.com/archon-ml/archon/internal/graph"
)

// ErrNoInputs is returned when inferred assembly has no input nodes to
// encode and therefore nothing to feed the heads.
var ErrNoInputs = errors.New("assemble: no inputs to encode")

// Assembler resolves a declaration into a graph using its registry of
// default encoder blocks.
type Assembler struct {
	reg *Registry
}

// New returns an assembler over the given registry.
func New(reg *Registry) *Assembler {
	return &Assembler{reg: reg}
}

// Result carries the assembled graph plus the canonical output node list
// and the heads in declared order. In inferred mode the outputs are the
// nodes produced by applying the heads, not the bare heads the caller
// declared; callers must observe these, not their original declaration.
type Result struct {
	Graph   *graph.Graph
	Outputs []*graph.Node
	Heads   []graph.Head
}

// Build assembles the declaration. Each output must be either a
// *graph.Node (functional mode) or a graph.Head (inferred mode).
func (a *Assembler) Build(inputs []*graph.Node, outputs []any) (*Result, error) {
	var nodes int
	var heads int
	for i, out := range outputs {
		switch out.(type) {
		case *graph.Node:
			nodes++
		case graph.Head:
			heads++
		default:
			return nil, graph.Structuref("output %d has unsupported type %T, expected a node or a head", i, out)
		}
	}

	switch {
	case len(outputs) == 0:
		return nil, &graph.StructureError{Reason: "no outputs declared"}
	case nodes == len(outputs):
		return a.functional(inputs, outputs)
	case heads == len(outputs):
		return a.inferred(inputs, outputs)
	default:
		return nil, graph.Structuref(
			"outputs mix %d wired nodes with %d bare heads; declare all outputs functionally or all as heads", nodes, heads)
	}
}

// functional records the declared nodes as the graph boundary; the
// wiring between them must already exist.
func (a *Assembler) functional(inputs []*graph.Node, outputs []any) (*Result, error) {
	outNodes := make([]*graph.Node, 0, len(outputs))
	for _, out := range outputs {
		outNodes = append(outNodes, out.(*graph.Node))
	}
	g, err := graph.New(inputs, outNodes)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: g, Outputs: outNodes, Heads: g.Heads()}, nil
}

// inferred selects one default encoder per input kind, merges the
// encoded signals when there is more than one, and applies every head to
// the combined node.
func (a *Assembler) inferred(inputs []*graph.Node, outputs []any) (*Result, error) {
	var middle []*graph.Node
	for _, in := range inputs {
		factory, ok := a.reg.encoders[in.Kind()]
		if !ok {
			return nil, graph.Structuref("no default encoder registered for input %q of kind %q", in.Name(), in.Kind())
		}
		middle = append(middle, graph.Apply(factory(in), in))
	}

	var combined *graph.Node
	switch len(middle) {
	case 0:
		return nil, fmt.Errorf("%w: %d inputs declared", ErrNoInputs, len(inputs))
	case 1:
		combined = middle[0]
	default:
		if a.reg.merge == nil {
			return nil, &graph.StructureError{Reason: "multiple inputs but no merge block registered"}
		}
		combined = graph.Apply(a.reg.merge(), middle...)
	}

	heads := make([]graph.Head, 0, len(outputs))
	outNodes := make([]*graph.Node, 0, len(outputs))
	for _, out := range outputs {
		h := out.(graph.Head)
		heads = append(heads, h)
		outNodes = append(outNodes, graph.Apply(h, combined))
	}

	g, err := graph.New(inputs, outNodes)
	if err != nil {
		return nil, err
	}
	return &Result{Graph: g, Outputs: outNodes, Heads: heads}, nil
}
