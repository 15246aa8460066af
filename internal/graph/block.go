package graph

import (
	"github.com/archon-ml/archon/internal/adapter"
)

// HyperParam is one named choice point a block contributes to the search
// space. Tuners sample one option per trial.
type HyperParam struct {
	Name    string
	Options []float64
}

// Block is a composable unit of the search space: it consumes nodes and
// produces a node when applied. Concrete blocks embed BlockBase for the
// wiring bookkeeping and add their own hyperparameters.
type Block interface {
	// Name identifies the block; unique within one graph by suffixing.
	Name() string

	// InputNodes returns the nodes this block consumes, set by Apply.
	InputNodes() []*Node

	// OutputNodes returns the nodes this block produces, set by Apply.
	OutputNodes() []*Node

	// Params returns the block's hyperparameter choice points.
	Params() []HyperParam

	wire(ins []*Node, out *Node)
}

// Head is a terminal block representing one supervised task. It is
// always a graph output and owns exactly one output adapter.
type Head interface {
	Block

	// NewAdapter constructs this head's output adapter, unfitted.
	NewAdapter() adapter.Adapter

	// ConfigFromAdapter pushes a fitted adapter's learned shape and
	// cardinality into the head's search-space configuration.
	ConfigFromAdapter(a adapter.Adapter)

	// Loss names the training objective this head optimizes.
	Loss() string

	// Metric names the evaluation metric this head reports.
	Metric() string
}

// BlockBase carries the wiring state shared by every block: its name,
// hyperparameters, and the nodes connected on either side. Embed it by
// pointer and hand the block to Apply to connect it into a graph.
type BlockBase struct {
	name   string
	params []HyperParam
	ins    []*Node
	outs   []*Node
}

// NewBlockBase seeds a block with its name and hyperparameter space.
func NewBlockBase(name string, params []HyperParam) BlockBase {
	return BlockBase{name: name, params: params}
}

func (b *BlockBase) Name() string        { return b.name }
func (b *BlockBase) Params() []HyperParam { return b.params }
func (b *BlockBase) InputNodes() []*Node  { return b.ins }
func (b *BlockBase) OutputNodes() []*Node { return b.outs }

func (b *BlockBase) wire(ins []*Node, out *Node) {
	b.ins = ins
	b.outs = []*Node{out}
}

// Apply connects a block to its input nodes and returns the produced
// node. Wiring registers the block on every input's consumer list and as
// the output's producer; a node's wiring never changes afterwards.
func Apply(b Block, inputs ...*Node) *Node {
	out := &Node{kind: KindGeneric, name: b.Name()}
	out.in = []Block{b}
	for _, in := range inputs {
		in.out = append(in.out, b)
	}
	b.wire(inputs, out)
	return out
}
