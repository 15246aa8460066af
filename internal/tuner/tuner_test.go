package tuner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-ml/archon/internal/block"
	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/tensor"
)

func TestNewRejectsUnknownTuner(t *testing.T) {
	_, err := New("unknown", Options{})

	var ute *UnknownTunerError
	require.ErrorAs(t, err, &ute)
	for _, name := range []string{"greedy", "random", "hyperband", "bayesian"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"bayesian", "greedy", "hyperband", "random"}, Names())
}

func TestParseObjective(t *testing.T) {
	cases := []struct {
		name   string
		metric string
		dir    Direction
	}{
		{"val_loss", "loss", DirectionMin},
		{"val_accuracy", "accuracy", DirectionMax},
		{"loss", "loss", DirectionMin},
		{"", "loss", DirectionMin},
	}
	for _, tc := range cases {
		o := ParseObjective(tc.name)
		assert.Equal(t, tc.metric, o.Metric(), tc.name)
		assert.Equal(t, tc.dir, o.Direction, tc.name)
	}

	min := ParseObjective("val_loss")
	assert.True(t, min.Better(0.1, 0.2))
	assert.False(t, min.Better(0.3, 0.2))
	max := ParseObjective("val_accuracy")
	assert.True(t, max.Better(0.9, 0.8))
}

// regressionFixture builds a structured-input regression graph and a
// linearly-dependent dataset the bundled model can actually learn.
func regressionFixture(t *testing.T, n int) (*graph.Graph, *dataset.Dataset, *dataset.Dataset) {
	t.Helper()
	in := graph.Input(graph.KindStructured, "rows")
	head := block.NewRegressionHead("target")
	enc := block.NewStructuredEncoder("enc")
	out := graph.Apply(head, graph.Apply(enc, in))

	g, err := graph.New([]*graph.Node{in}, []*graph.Node{out})
	require.NoError(t, err)

	xs := make([][]float64, n)
	ys := make([][]float64, n)
	for i := range xs {
		a := float64(i%10) / 10
		b := float64((i*3)%7) / 7
		xs[i] = []float64{a, b}
		ys[i] = []float64{2*a - b}
	}
	full, err := dataset.Zip(
		[]tensor.Series{tensor.FromMatrix(xs)},
		[]tensor.Series{tensor.FromMatrix(ys)},
	)
	require.NoError(t, err)
	train, val, err := full.Split(0.2)
	require.NoError(t, err)
	return g, train, val
}

type recordingCallback struct {
	trials []Trial
}

func (c *recordingCallback) OnTrialEnd(tr Trial) { c.trials = append(c.trials, tr) }

func TestSearchRunsTrialBudget(t *testing.T) {
	ctx := context.Background()
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			g, train, val := regressionFixture(t, 100)
			tn, err := New(name, Options{MaxTrials: 4, Seed: 7, Objective: ParseObjective("val_loss")})
			require.NoError(t, err)

			cb := &recordingCallback{}
			req := SearchRequest{
				Graph: g, Train: train, Validation: val,
				Epochs: 20, BatchSize: 16, Callbacks: []Callback{cb},
			}
			require.NoError(t, tn.Search(ctx, req))
			assert.Len(t, cb.trials, 4)

			model, err := tn.BestModel(ctx)
			require.NoError(t, err)

			preds, err := model.Predict(ctx, val, 16)
			require.NoError(t, err)
			require.Len(t, preds, 1)
			assert.Equal(t, val.Len(), preds[0].Len())
			assert.Equal(t, []int{1}, preds[0][0].Shape())

			metrics, err := model.Evaluate(ctx, val, 16)
			require.NoError(t, err)
			assert.Contains(t, metrics, "loss")
			assert.Less(t, metrics["loss"], 1.0, "a linear target should be learnable")
		})
	}
}

func TestSearchIsDeterministicForSeed(t *testing.T) {
	ctx := context.Background()
	run := func() []float64 {
		g, train, val := regressionFixture(t, 60)
		tn, err := New("random", Options{MaxTrials: 3, Seed: 42})
		require.NoError(t, err)
		cb := &recordingCallback{}
		require.NoError(t, tn.Search(ctx, SearchRequest{
			Graph: g, Train: train, Validation: val,
			Epochs: 5, BatchSize: 8, Callbacks: []Callback{cb},
		}))
		scores := make([]float64, 0, len(cb.trials))
		for _, tr := range cb.trials {
			scores = append(scores, tr.Score)
		}
		return scores
	}
	assert.Equal(t, run(), run())
}

func TestBestModelBeforeSearch(t *testing.T) {
	tn, err := New("greedy", Options{MaxTrials: 1})
	require.NoError(t, err)
	_, err = tn.BestModel(context.Background())
	assert.ErrorIs(t, err, ErrNoBestModel)
}

func TestRepeatedSearchResumesAccounting(t *testing.T) {
	ctx := context.Background()
	g, train, val := regressionFixture(t, 60)
	tn, err := New("greedy", Options{MaxTrials: 3, Seed: 1})
	require.NoError(t, err)

	cb := &recordingCallback{}
	req := SearchRequest{Graph: g, Train: train, Validation: val, Epochs: 4, BatchSize: 8, Callbacks: []Callback{cb}}
	require.NoError(t, tn.Search(ctx, req))
	require.Len(t, cb.trials, 3)

	// The budget is spent; a second call runs no further trials.
	require.NoError(t, tn.Search(ctx, req))
	assert.Len(t, cb.trials, 3)
}

func TestSearchPersistsAndResumesFromTrialLog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	g, train, val := regressionFixture(t, 60)

	opts := Options{MaxTrials: 2, Seed: 5, Directory: dir, ProjectName: "exp"}
	tn, err := New("random", opts)
	require.NoError(t, err)
	req := SearchRequest{Graph: g, Train: train, Validation: val, Epochs: 4, BatchSize: 8}
	require.NoError(t, tn.Search(ctx, req))

	// A fresh tuner over the same directory resumes: the stored trials
	// count against the budget, and the best recorded candidate is
	// refit so BestModel works.
	resumed, err := New("random", opts)
	require.NoError(t, err)
	cb := &recordingCallback{}
	req.Callbacks = []Callback{cb}
	require.NoError(t, resumed.Search(ctx, req))
	assert.Empty(t, cb.trials, "budget already spent by the recorded trials")

	_, err = resumed.BestModel(ctx)
	assert.NoError(t, err)

	// With overwrite, the log is discarded and the budget is fresh.
	fresh, err := New("random", Options{MaxTrials: 2, Seed: 5, Directory: dir, ProjectName: "exp", Overwrite: true})
	require.NoError(t, err)
	cb2 := &recordingCallback{}
	req.Callbacks = []Callback{cb2}
	require.NoError(t, fresh.Search(ctx, req))
	assert.Len(t, cb2.trials, 2)
}

func TestFitOnValidationRetrainsOnReunitedData(t *testing.T) {
	ctx := context.Background()
	g, train, val := regressionFixture(t, 60)
	tn, err := New("greedy", Options{MaxTrials: 2, Seed: 3})
	require.NoError(t, err)

	require.NoError(t, tn.Search(ctx, SearchRequest{
		Graph: g, Train: train, Validation: val,
		Epochs: 6, BatchSize: 8, FitOnValidation: true,
	}))
	model, err := tn.BestModel(ctx)
	require.NoError(t, err)
	preds, err := model.Predict(ctx, val, 8)
	require.NoError(t, err)
	assert.Equal(t, val.Len(), preds[0].Len())
}

func TestEvaluateReportsAccuracyForVectorHeads(t *testing.T) {
	ctx := context.Background()
	in := graph.Input(graph.KindStructured, "rows")
	head := block.NewClassificationHead("label")
	out := graph.Apply(head, graph.Apply(block.NewStructuredEncoder("enc"), in))
	g, err := graph.New([]*graph.Node{in}, []*graph.Node{out})
	require.NoError(t, err)

	// Two linearly separable one-hot classes.
	xs := make([][]float64, 40)
	ys := make([][]float64, 40)
	for i := range xs {
		if i%2 == 0 {
			xs[i] = []float64{1, 0}
			ys[i] = []float64{1, 0}
		} else {
			xs[i] = []float64{0, 1}
			ys[i] = []float64{0, 1}
		}
	}
	ds, err := dataset.Zip([]tensor.Series{tensor.FromMatrix(xs)}, []tensor.Series{tensor.FromMatrix(ys)})
	require.NoError(t, err)

	model := newLinearModel(g, map[string]float64{"label/learning_rate": 0.1})
	require.NoError(t, model.train(ctx, ds, 50, 8))

	metrics, err := model.Evaluate(ctx, ds, 8)
	require.NoError(t, err)
	require.Contains(t, metrics, "accuracy")
	assert.Greater(t, metrics["accuracy"], 0.95)
}
