package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/archon-ml/archon/internal/automodel"
	"github.com/archon-ml/archon/internal/block"
	"github.com/archon-ml/archon/internal/config"
	"github.com/archon-ml/archon/internal/ctxlog"
	"github.com/archon-ml/archon/internal/graph"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
	}
}

// Run executes the main application logic: load the experiment, assemble
// the model, and either plan or search.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	exp, err := config.Load(ctx, a.config.ExperimentPath)
	if err != nil {
		return fmt.Errorf("failed to load experiment: %w", err)
	}

	model, err := buildModel(exp)
	if err != nil {
		return fmt.Errorf("failed to assemble model: %w", err)
	}
	a.logger.Debug("Model assembled.",
		"experiment", exp.Name,
		"nodes", len(model.Graph().Nodes()),
		"blocks", len(model.Graph().Blocks()))

	if a.config.Plan {
		return a.plan(exp, model)
	}

	x, y, err := bindData(exp, filepath.Dir(a.config.ExperimentPath))
	if err != nil {
		return fmt.Errorf("failed to bind experiment data: %w", err)
	}

	a.logger.Info("🔍 Starting architecture search...",
		"experiment", exp.Name, "tuner", tunerName(exp), "max_trials", exp.MaxTrials)
	err = model.Fit(ctx, automodel.FitOptions{
		X:               x,
		Y:               y,
		ValidationSplit: exp.Fit.ValidationSplit,
		Epochs:          exp.Fit.Epochs,
		BatchSize:       exp.Fit.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	metrics, err := model.Evaluate(ctx, automodel.EvalOptions{X: x, Y: y, BatchSize: exp.Fit.BatchSize})
	if err != nil {
		return fmt.Errorf("failed to evaluate best model: %w", err)
	}
	a.logger.Info("🏁 Search finished.", metricArgs(metrics)...)
	return nil
}

func tunerName(exp *config.Experiment) string {
	if exp.Tuner == "" {
		return "greedy"
	}
	return exp.Tuner
}

// buildModel translates an experiment declaration into an assembled
// orchestrator. Outputs are declared as bare heads; the encoders come
// from the default registry per input kind.
func buildModel(exp *config.Experiment) (*automodel.AutoModel, error) {
	inputs := make([]*graph.Node, 0, len(exp.Inputs))
	for _, in := range exp.Inputs {
		inputs = append(inputs, graph.Input(in.Kind, in.Name))
	}

	outputs := make([]any, 0, len(exp.Outputs))
	for _, out := range exp.Outputs {
		switch out.Head {
		case "classification":
			outputs = append(outputs, block.NewClassificationHead(out.Name))
		case "regression":
			outputs = append(outputs, block.NewRegressionHead(out.Name))
		default:
			return nil, fmt.Errorf("unknown head %q for output '%s'", out.Head, out.Name)
		}
	}

	return automodel.New(automodel.Config{
		Inputs:      inputs,
		Outputs:     outputs,
		ProjectName: exp.Name,
		MaxTrials:   exp.MaxTrials,
		Directory:   exp.Directory,
		Objective:   exp.Objective,
		Tuner:       exp.Tuner,
		Overwrite:   exp.Overwrite,
		Seed:        exp.Seed,
	})
}

// plan prints the assembled search space without running any trials.
func (a *App) plan(exp *config.Experiment, model *automodel.AutoModel) error {
	fmt.Fprintf(a.outW, "experiment %q (tuner=%s, max_trials=%d)\n", exp.Name, tunerName(exp), exp.MaxTrials)
	for _, in := range exp.Inputs {
		fmt.Fprintf(a.outW, "  input  %s kind=%s\n", in.Name, in.Kind)
	}
	for _, out := range exp.Outputs {
		fmt.Fprintf(a.outW, "  output %s head=%s\n", out.Name, out.Head)
	}

	params := model.Graph().Params()
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	fmt.Fprintf(a.outW, "search space (%d hyperparameters):\n", len(params))
	for _, p := range params {
		fmt.Fprintf(a.outW, "  %s %v\n", p.Name, p.Options)
	}
	return nil
}

func metricArgs(metrics map[string]float64) []any {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, metrics[k])
	}
	return args
}
