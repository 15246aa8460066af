// Package graph models the compiled search space: typed nodes, the
// polymorphic blocks that connect them, and the validated DAG built from
// declared inputs and outputs. The structure is immutable after
// construction; only per-trial hyperparameter choices inside blocks vary,
// and those are the tuner's concern.
package graph

import (
	"fmt"
)

// StructureError reports an invalid graph declaration: unreachable
// outputs, cyclic wiring, or a mixed functional/inferred output list.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "graph: " + e.Reason
}

// Structuref builds a StructureError from a format string.
func Structuref(format string, args ...any) *StructureError {
	return &StructureError{Reason: fmt.Sprintf(format, args...)}
}

// Graph is the assembled DAG. Sources are the declared inputs, sinks the
// declared outputs; every interior node is produced by exactly the block
// that Apply wired in. Safe for concurrent read-only use once built.
type Graph struct {
	inputs  []*Node
	outputs []*Node
	nodes   []*Node // topological order, producers first
	blocks  []Block // topological order
}

// New validates the wiring between the declared inputs and outputs and
// returns the graph. It walks backward from the outputs collecting every
// node and block, then checks that the walk bottoms out in the declared
// inputs, that no non-input node lacks a producer, and that the wiring is
// acyclic.
func New(inputs, outputs []*Node) (*Graph, error) {
	if len(inputs) == 0 {
		return nil, &StructureError{Reason: "graph has no declared inputs"}
	}
	if len(outputs) == 0 {
		return nil, &StructureError{Reason: "graph has no declared outputs"}
	}

	declared := make(map[*Node]bool, len(inputs))
	for _, in := range inputs {
		declared[in] = true
	}

	g := &Graph{inputs: inputs, outputs: outputs}

	// Depth-first back-walk with three-color marking; gray nodes are on
	// the current path, so meeting one again means a cycle.
	const (
		gray = iota + 1
		black
	)
	nodeColor := make(map[*Node]int)
	blockSeen := make(map[Block]bool)

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch nodeColor[n] {
		case black:
			return nil
		case gray:
			return Structuref("cycle detected involving node %q", n.Name())
		}
		nodeColor[n] = gray

		if !declared[n] {
			if len(n.InBlocks()) == 0 {
				return Structuref("node %q is not a declared input and has no producing block", n.Name())
			}
			for _, b := range n.InBlocks() {
				for _, dep := range b.InputNodes() {
					if err := visit(dep); err != nil {
						return err
					}
				}
				if !blockSeen[b] {
					blockSeen[b] = true
					g.blocks = append(g.blocks, b)
				}
			}
		}

		nodeColor[n] = black
		g.nodes = append(g.nodes, n)
		return nil
	}

	for _, out := range outputs {
		if err := visit(out); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Inputs returns the declared input nodes, identical to those passed to
// New (identity, not copies).
func (g *Graph) Inputs() []*Node { return g.inputs }

// Outputs returns the declared output nodes.
func (g *Graph) Outputs() []*Node { return g.outputs }

// Nodes returns every node reachable from the outputs, in an order where
// producers precede consumers.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Blocks returns every block in the graph in topological order.
func (g *Graph) Blocks() []Block { return g.blocks }

// Heads returns the heads of the graph in declared output order. Outputs
// produced by a non-Head block yield no entry; a fully supervised graph
// has one head per output.
func (g *Graph) Heads() []Head {
	var heads []Head
	for _, out := range g.outputs {
		for _, b := range out.InBlocks() {
			if h, ok := b.(Head); ok {
				heads = append(heads, h)
			}
		}
	}
	return heads
}

// Params returns the union of every block's hyperparameters, each name
// prefixed with its block name so choice points stay distinct per block.
func (g *Graph) Params() []HyperParam {
	var params []HyperParam
	for _, b := range g.blocks {
		for _, p := range b.Params() {
			params = append(params, HyperParam{
				Name:    b.Name() + "/" + p.Name,
				Options: p.Options,
			})
		}
	}
	return params
}
