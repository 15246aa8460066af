package automodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-ml/archon/internal/adapter"
	"github.com/archon-ml/archon/internal/block"
	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/pipeline"
	"github.com/archon-ml/archon/internal/tensor"
	"github.com/archon-ml/archon/internal/tuner"
)

// regressionData returns n examples of a linear single-input target.
func regressionData(n int) (x, y tensor.Series) {
	xs := make([][]float64, n)
	ys := make([][]float64, n)
	for i := range xs {
		a := float64(i%10) / 10
		b := float64((i*3)%7) / 7
		xs[i] = []float64{a, b}
		ys[i] = []float64{2*a - b}
	}
	return tensor.FromMatrix(xs), tensor.FromMatrix(ys)
}

func classificationData(n int) (x, y tensor.Series) {
	xs := make([][]float64, n)
	labels := make([]float64, n)
	for i := range xs {
		cls := i % 3
		xs[i] = []float64{float64(cls), float64(cls) * 2}
		labels[i] = float64(cls * 10)
	}
	return tensor.FromMatrix(xs), tensor.FromValues(labels)
}

func newRegressionModel(t *testing.T) *AutoModel {
	t.Helper()
	m, err := New(Config{
		Inputs:    []*graph.Node{graph.Input(graph.KindStructured, "rows")},
		Outputs:   []any{block.NewRegressionHead("target")},
		MaxTrials: 3,
		Seed:      7,
	})
	require.NoError(t, err)
	return m
}

func TestNewValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"no inputs", Config{Outputs: []any{block.NewRegressionHead("t")}}},
		{"no outputs", Config{Inputs: []*graph.Node{graph.Input(graph.KindImage, "img")}}},
		{"negative trials", Config{
			Inputs:    []*graph.Node{graph.Input(graph.KindImage, "img")},
			Outputs:   []any{block.NewRegressionHead("t")},
			MaxTrials: -1,
		}},
		{"preprocessor count", Config{
			Inputs:        []*graph.Node{graph.Input(graph.KindImage, "img")},
			Outputs:       []any{block.NewRegressionHead("t")},
			Preprocessors: make([]adapter.Adapter, 2),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestNewRejectsUnknownTunerAsConfiguration(t *testing.T) {
	_, err := New(Config{
		Inputs:  []*graph.Node{graph.Input(graph.KindStructured, "rows")},
		Outputs: []any{block.NewRegressionHead("target")},
		Tuner:   "genetic",
	})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	var ute *tuner.UnknownTunerError
	assert.ErrorAs(t, err, &ute)
}

func TestNewSurfacesStructureErrors(t *testing.T) {
	in := graph.Input(graph.KindImage, "img")
	stray := graph.Input(graph.KindText, "txt")
	head := block.NewClassificationHead("cls")
	enc := block.NewImageEncoder("enc")
	out := graph.Apply(head, graph.Apply(enc, stray))

	_, err := New(Config{Inputs: []*graph.Node{in}, Outputs: []any{out}})

	var se *graph.StructureError
	require.ErrorAs(t, err, &se)
}

func TestOutputsResolvedInInferredMode(t *testing.T) {
	m := newRegressionModel(t)

	require.Len(t, m.Outputs(), 1)
	assert.False(t, m.Outputs()[0].IsInput())
	require.Len(t, m.Heads(), 1)
	assert.Equal(t, "target", m.Heads()[0].Name())
	assert.Equal(t, StateConstructed, m.State())
}

func TestFitPredictEvaluate(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, y := regressionData(100)

	err := m.Fit(ctx, FitOptions{
		X: []tensor.Series{x}, Y: []tensor.Series{y},
		ValidationSplit: 0.2, Epochs: 20, BatchSize: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, m.State())

	preds, err := m.Predict(ctx, PredictOptions{X: []tensor.Series{x[:5]}})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, 5, preds[0].Len())

	single, err := m.PredictSingle(ctx, PredictOptions{X: []tensor.Series{x[:5]}})
	require.NoError(t, err)
	assert.Equal(t, 5, single.Len())

	metrics, err := m.Evaluate(ctx, EvalOptions{X: []tensor.Series{x}, Y: []tensor.Series{y}})
	require.NoError(t, err)
	assert.Contains(t, metrics, "loss")
	assert.Less(t, metrics["loss"], 1.0)

	exported, err := m.ExportModel(ctx)
	require.NoError(t, err)
	assert.NotNil(t, exported)
}

func TestPredictBeforeFit(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, _ := regressionData(5)

	_, err := m.Predict(ctx, PredictOptions{X: []tensor.Series{x}})
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.Evaluate(ctx, EvalOptions{X: []tensor.Series{x}})
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = m.ExportModel(ctx)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestFitRequiresValidation(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, y := regressionData(20)

	err := m.Fit(ctx, FitOptions{X: []tensor.Series{x}, Y: []tensor.Series{y}, Epochs: 2})
	assert.ErrorIs(t, err, pipeline.ErrMissingValidation)
	assert.Equal(t, StateConstructed, m.State())
}

func TestFitWithExplicitValidation(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, y := regressionData(80)
	vx, vy := regressionData(20)

	err := m.Fit(ctx, FitOptions{
		X: []tensor.Series{x}, Y: []tensor.Series{y},
		ValidationData: &pipeline.Source{X: []tensor.Series{vx}, Y: []tensor.Series{vy}},
		Epochs:         5, BatchSize: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, StateReady, m.State())
}

func TestFitWithUnifiedDataset(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, y := regressionData(50)
	ds, err := dataset.Zip([]tensor.Series{x}, []tensor.Series{y})
	require.NoError(t, err)

	err = m.Fit(ctx, FitOptions{Dataset: ds, ValidationSplit: 0.2, Epochs: 5})
	require.NoError(t, err)

	// Predicting from a paired dataset extracts the input part.
	preds, err := m.Predict(ctx, PredictOptions{Dataset: ds})
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), preds[0].Len())
}

func TestRepeatedFitResumesSearch(t *testing.T) {
	ctx := context.Background()
	m := newRegressionModel(t)
	x, y := regressionData(60)
	opts := FitOptions{
		X: []tensor.Series{x}, Y: []tensor.Series{y},
		ValidationSplit: 0.25, Epochs: 5,
	}

	var cb recordingCallback
	opts.Callbacks = []tuner.Callback{&cb}
	require.NoError(t, m.Fit(ctx, opts))
	first := len(cb.trials)
	assert.Equal(t, 3, first)

	// The trial budget is already spent, so a second fit adds nothing
	// but still leaves the model ready.
	require.NoError(t, m.Fit(ctx, opts))
	assert.Len(t, cb.trials, first)
	assert.Equal(t, StateReady, m.State())
}

func TestPredictPostprocessesClassification(t *testing.T) {
	ctx := context.Background()
	m, err := New(Config{
		Inputs:    []*graph.Node{graph.Input(graph.KindStructured, "rows")},
		Outputs:   []any{block.NewClassificationHead("cls")},
		MaxTrials: 3,
		Seed:      3,
	})
	require.NoError(t, err)

	x, y := classificationData(90)
	require.NoError(t, m.Fit(ctx, FitOptions{
		X: []tensor.Series{x}, Y: []tensor.Series{y},
		ValidationSplit: 0.2, Epochs: 30, BatchSize: 16,
	}))

	preds, err := m.PredictSingle(ctx, PredictOptions{X: []tensor.Series{x}})
	require.NoError(t, err)
	require.Equal(t, x.Len(), preds.Len())
	// Postprocessing maps the one-hot distribution back to original labels.
	for _, p := range preds {
		assert.Contains(t, []float64{0, 10, 20}, p.Data()[0])
	}
}

type recordingCallback struct {
	trials []tuner.Trial
}

func (c *recordingCallback) OnTrialEnd(tr tuner.Trial) { c.trials = append(c.trials, tr) }
