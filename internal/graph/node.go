package graph

import (
	"fmt"

	"github.com/archon-ml/archon/internal/adapter"
)

// Kind is the closed set of semantic input kinds the assembler can
// dispatch on. Extensibility comes from the assembler's encoder registry,
// not from adding open-ended dynamic checks.
type Kind int

const (
	KindGeneric Kind = iota
	KindImage
	KindText
	KindStructured
	KindTimeseries
)

var kindNames = map[Kind]string{
	KindGeneric:    "generic",
	KindImage:      "image",
	KindText:       "text",
	KindStructured: "structured",
	KindTimeseries: "timeseries",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind's name as used in experiment configuration.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindGeneric, fmt.Errorf("graph: unknown input kind %q, expected one of \"generic\", \"image\", \"text\", \"structured\", \"timeseries\"", name)
}

// Node is one tensor-shaped slot in the architecture graph: a declared
// input or an intermediate signal produced by a block. Nodes are owned by
// the graph and referenced, never owned, by the blocks on either side.
// Wiring is immutable once the graph is built; the only post-assembly
// mutation is recording the learned adapter summary for the search space.
type Node struct {
	kind    Kind
	name    string
	in      []Block // producing blocks
	out     []Block // consuming blocks
	learned adapter.Learned
}

// Input declares a named graph input of the given semantic kind.
func Input(kind Kind, name string) *Node {
	return &Node{kind: kind, name: name}
}

// Kind returns the node's semantic kind.
func (n *Node) Kind() Kind { return n.kind }

// Name returns the node's declared name; intermediate nodes are named
// after the block that produced them.
func (n *Node) Name() string { return n.name }

// InBlocks returns the blocks producing this node. Empty for inputs.
func (n *Node) InBlocks() []Block { return n.in }

// OutBlocks returns the blocks consuming this node.
func (n *Node) OutBlocks() []Block { return n.out }

// IsInput reports whether the node is a graph source (no producer).
func (n *Node) IsInput() bool { return len(n.in) == 0 }

// ConfigFromAdapter records a fitted adapter's learned summary on the
// node so the search space can observe data-dependent shape and
// cardinality before trials run.
func (n *Node) ConfigFromAdapter(a adapter.Adapter) {
	n.learned = a.Learned()
}

// Learned returns the adapter summary recorded by ConfigFromAdapter.
func (n *Node) Learned() adapter.Learned { return n.learned }
