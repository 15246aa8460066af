package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-ml/archon/internal/block"
	"github.com/archon-ml/archon/internal/graph"
)

func TestFunctionalModeKeepsBoundaryIdentity(t *testing.T) {
	in := graph.Input(graph.KindImage, "pixels")
	out := graph.Apply(block.NewClassificationHead("label"), graph.Apply(block.NewImageEncoder("enc"), in))

	res, err := New(Defaults()).Build([]*graph.Node{in}, []any{out})
	require.NoError(t, err)

	// The declared node sets are the graph's boundary, identity not copies.
	assert.Same(t, in, res.Graph.Inputs()[0])
	assert.Same(t, out, res.Graph.Outputs()[0])
	assert.Same(t, out, res.Outputs[0])
	require.Len(t, res.Heads, 1)
}

func TestFunctionalModeUnreachableOutput(t *testing.T) {
	in := graph.Input(graph.KindImage, "pixels")
	other := graph.Input(graph.KindText, "tokens")
	out := graph.Apply(block.NewClassificationHead("label"), graph.Apply(block.NewTextEncoder("enc"), other))

	var serr *graph.StructureError
	_, err := New(Defaults()).Build([]*graph.Node{in}, []any{out})
	require.Error(t, err)
	assert.ErrorAs(t, err, &serr)
}

func TestInferredSingleInput(t *testing.T) {
	in := graph.Input(graph.KindStructured, "rows")
	head := block.NewRegressionHead("price")

	res, err := New(Defaults()).Build([]*graph.Node{in}, []any{head})
	require.NoError(t, err)

	assert.Len(t, res.Graph.Inputs(), 1)
	assert.Len(t, res.Graph.Outputs(), 1)
	require.Len(t, res.Heads, 1)
	assert.Same(t, graph.Head(head), res.Heads[0])
	// Single input: no merge block, encoder feeds the head directly.
	require.Len(t, res.Graph.Blocks(), 2)
	assert.Equal(t, "structured_encoder_rows", res.Graph.Blocks()[0].Name())
}

func TestInferredMultiInputMerges(t *testing.T) {
	image := graph.Input(graph.KindImage, "pixels")
	text := graph.Input(graph.KindText, "tokens")
	clf := block.NewClassificationHead("label")
	reg := block.NewRegressionHead("score")

	res, err := New(Defaults()).Build([]*graph.Node{image, text}, []any{clf, reg})
	require.NoError(t, err)

	// Source count equals declared inputs, sink count equals declared heads.
	assert.Len(t, res.Graph.Inputs(), 2)
	assert.Len(t, res.Graph.Outputs(), 2)
	assert.Len(t, res.Heads, 2)

	names := make([]string, 0)
	for _, b := range res.Graph.Blocks() {
		names = append(names, b.Name())
	}
	assert.Contains(t, names, "merge")
	assert.Contains(t, names, "image_encoder_pixels")
	assert.Contains(t, names, "text_encoder_tokens")
}

func TestMixedDeclarationFailsFast(t *testing.T) {
	in := graph.Input(graph.KindImage, "pixels")
	wired := graph.Apply(block.NewClassificationHead("label"), graph.Apply(block.NewImageEncoder("enc"), in))
	bare := block.NewRegressionHead("score")

	var serr *graph.StructureError
	_, err := New(Defaults()).Build([]*graph.Node{in}, []any{wired, bare})
	require.Error(t, err)
	assert.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "mix")
}

func TestUnregisteredKindFailsAssembly(t *testing.T) {
	reg := NewRegistry() // nothing registered
	in := graph.Input(graph.KindImage, "pixels")

	var serr *graph.StructureError
	_, err := New(reg).Build([]*graph.Node{in}, []any{block.NewClassificationHead("label")})
	require.Error(t, err)
	assert.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "image")
}

func TestNoInputs(t *testing.T) {
	_, err := New(Defaults()).Build(nil, []any{block.NewClassificationHead("label")})
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestUnsupportedOutputType(t *testing.T) {
	in := graph.Input(graph.KindImage, "pixels")
	_, err := New(Defaults()).Build([]*graph.Node{in}, []any{42})
	var serr *graph.StructureError
	require.Error(t, err)
	assert.ErrorAs(t, err, &serr)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.RegisterEncoder(graph.KindImage, func(in *graph.Node) graph.Block {
		return block.NewImageEncoder("enc")
	})
	assert.Panics(t, func() {
		r.RegisterEncoder(graph.KindImage, func(in *graph.Node) graph.Block {
			return block.NewImageEncoder("enc2")
		})
	})
}
