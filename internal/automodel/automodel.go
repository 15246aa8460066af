// Package automodel is the orchestration surface: it owns the assembled
// graph, one adapter per input and per head, and the tuner, and wires
// the data pipeline to the search through fit, predict, evaluate, and
// export. Trial execution is entirely the tuner's concern; this layer
// makes one blocking Search call and re-queries the best model on every
// prediction so continued searches are reflected immediately.
//
// An AutoModel is not safe for concurrent use: callers serialize Fit
// against everything else, the same way they would a training loop.
package automodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/archon-ml/archon/internal/adapter"
	"github.com/archon-ml/archon/internal/assemble"
	"github.com/archon-ml/archon/internal/ctxlog"
	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/pipeline"
	"github.com/archon-ml/archon/internal/tensor"
	"github.com/archon-ml/archon/internal/tuner"
)

// ErrNotFitted is returned when predict, evaluate, or export is called
// before a successful fit.
var ErrNotFitted = errors.New("automodel: model is not fitted, call Fit first")

// ErrFitInProgress is returned when Fit re-enters while a fit is
// already running; callers must serialize fits.
var ErrFitInProgress = errors.New("automodel: a fit is already in progress")

// ConfigurationError reports an invalid constructor argument. It is
// raised before any graph work happens.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "automodel: invalid configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}

// State is the orchestrator lifecycle phase.
type State int

const (
	StateConstructed State = iota
	StateFitting
	StateReady
)

// Config declares an AutoModel. Outputs holds either already-wired
// *graph.Node values (functional declaration) or bare graph.Head values
// (inferred declaration); mixing the two fails during assembly.
type Config struct {
	Inputs  []*graph.Node
	Outputs []any

	// Preprocessors optionally overrides the default input adapter per
	// declared input. When set it must have one entry per input.
	Preprocessors []adapter.Adapter

	// Registry overrides the default-encoder registry used by inferred
	// assembly. Nil means the bundled defaults.
	Registry *assemble.Registry

	ProjectName string // defaults to "auto_model"
	MaxTrials   int    // defaults to 100
	Directory   string // trial log location; empty keeps records in memory
	Objective   string // defaults to "val_loss"
	Tuner       string // one of tuner.Names(); defaults to "greedy"
	Overwrite   bool
	Seed        int64
}

// AutoModel owns the graph, the adapters, and the tuner for one search
// project.
type AutoModel struct {
	cfg     Config
	graph   *graph.Graph
	outputs []*graph.Node
	heads   []graph.Head
	pipe    *pipeline.Pipeline
	tuner   tuner.Tuner
	state   State
}

// New assembles the graph, constructs one adapter per input and per
// head, and builds the selected tuner. Configuration problems surface as
// *ConfigurationError before any graph work; structural problems in the
// declaration surface as *graph.StructureError.
func New(cfg Config) (*AutoModel, error) {
	if len(cfg.Inputs) == 0 {
		return nil, configErrorf("at least one input is required")
	}
	if len(cfg.Outputs) == 0 {
		return nil, configErrorf("at least one output is required")
	}
	if cfg.Preprocessors != nil && len(cfg.Preprocessors) != len(cfg.Inputs) {
		return nil, configErrorf("%d preprocessors for %d inputs", len(cfg.Preprocessors), len(cfg.Inputs))
	}
	if cfg.MaxTrials < 0 {
		return nil, configErrorf("max trials must not be negative, got %d", cfg.MaxTrials)
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = "auto_model"
	}
	if cfg.MaxTrials == 0 {
		cfg.MaxTrials = 100
	}
	if cfg.Tuner == "" {
		cfg.Tuner = "greedy"
	}

	reg := cfg.Registry
	if reg == nil {
		reg = assemble.Defaults()
	}
	res, err := assemble.New(reg).Build(cfg.Inputs, cfg.Outputs)
	if err != nil {
		return nil, err
	}

	inAdapters := make([]adapter.Adapter, len(cfg.Inputs))
	for i, in := range cfg.Inputs {
		if cfg.Preprocessors != nil && cfg.Preprocessors[i] != nil {
			inAdapters[i] = cfg.Preprocessors[i]
			continue
		}
		inAdapters[i] = pipeline.AdapterForKind(in.Kind())
	}
	outAdapters := make([]adapter.Adapter, len(res.Heads))
	for i, h := range res.Heads {
		outAdapters[i] = h.NewAdapter()
	}

	pipe, err := pipeline.New(cfg.Inputs, res.Heads, inAdapters, outAdapters)
	if err != nil {
		return nil, err
	}

	tn, err := tuner.New(cfg.Tuner, tuner.Options{
		ProjectName: cfg.ProjectName,
		Directory:   cfg.Directory,
		Objective:   tuner.ParseObjective(cfg.Objective),
		MaxTrials:   cfg.MaxTrials,
		Seed:        cfg.Seed,
		Overwrite:   cfg.Overwrite,
	})
	if err != nil {
		var ute *tuner.UnknownTunerError
		if errors.As(err, &ute) {
			return nil, &ConfigurationError{Err: err}
		}
		return nil, err
	}

	return &AutoModel{
		cfg:     cfg,
		graph:   res.Graph,
		outputs: res.Outputs,
		heads:   res.Heads,
		pipe:    pipe,
		tuner:   tn,
	}, nil
}

// Graph returns the assembled search space.
func (m *AutoModel) Graph() *graph.Graph { return m.graph }

// Outputs returns the canonical output nodes after assembly; in inferred
// mode these are the nodes the heads produced, not the bare heads the
// caller declared.
func (m *AutoModel) Outputs() []*graph.Node { return m.outputs }

// Heads returns the graph's heads in declared order.
func (m *AutoModel) Heads() []graph.Head { return m.heads }

// State returns the lifecycle phase.
func (m *AutoModel) State() State { return m.state }

// FitOptions carries one fit's data and search parameters. Data is
// either per-slot series (X, Y) or a unified Dataset, never both.
type FitOptions struct {
	X       []tensor.Series
	Y       []tensor.Series
	Dataset *dataset.Dataset

	// ValidationData wins over ValidationSplit when both are set. One
	// of the two is required.
	ValidationData  *pipeline.Source
	ValidationSplit float64

	Epochs    int
	BatchSize int // defaults to 32
	Callbacks []tuner.Callback
}

// Fit validates and adapts the data, then searches for the best
// realization. A repeated Fit resumes the tuner's trial accounting
// rather than restarting it; adapters stay fit from the first pass.
func (m *AutoModel) Fit(ctx context.Context, opts FitOptions) error {
	if m.state == StateFitting {
		return ErrFitInProgress
	}
	m.state = StateFitting

	err := m.fit(ctx, opts)
	if err != nil {
		if m.tunerHasModel(ctx) {
			m.state = StateReady
		} else {
			m.state = StateConstructed
		}
		return err
	}
	m.state = StateReady
	return nil
}

func (m *AutoModel) fit(ctx context.Context, opts FitOptions) error {
	logger := ctxlog.FromContext(ctx)

	prep, err := m.pipe.PrepareFit(pipeline.Source{X: opts.X, Y: opts.Y, Dataset: opts.Dataset},
		opts.ValidationData, opts.ValidationSplit)
	if err != nil {
		return err
	}
	logger.Debug("data prepared",
		"train_examples", prep.Train.Len(),
		"validation_examples", prep.Validation.Len(),
		"inputs", prep.Train.InputArity(),
		"outputs", prep.Train.OutputArity())

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	return m.tuner.Search(ctx, tuner.SearchRequest{
		Graph:           m.graph,
		Train:           prep.Train,
		Validation:      prep.Validation,
		Epochs:          opts.Epochs,
		BatchSize:       batchSize,
		Callbacks:       opts.Callbacks,
		FitOnValidation: prep.FitOnValidation,
	})
}

func (m *AutoModel) tunerHasModel(ctx context.Context) bool {
	_, err := m.tuner.BestModel(ctx)
	return err == nil
}

// PredictOptions carries prediction input: per-slot series or an
// already-assembled dataset whose x part is extracted by structure.
type PredictOptions struct {
	X         []tensor.Series
	Dataset   *dataset.Dataset
	BatchSize int
}

// Predict runs the tuner's current best model over the input and
// post-processes each output with its head's adapter. The best model is
// re-queried on every call.
func (m *AutoModel) Predict(ctx context.Context, opts PredictOptions) ([]tensor.Series, error) {
	if m.state != StateReady {
		return nil, ErrNotFitted
	}

	src := pipeline.Source{X: opts.X}
	if opts.Dataset != nil {
		x, err := m.pipe.ExtractX(opts.Dataset)
		if err != nil {
			return nil, err
		}
		src = pipeline.Source{Dataset: x}
	}
	canonical, err := m.pipe.ProcessXY(src, false, false, true)
	if err != nil {
		return nil, err
	}

	model, err := m.tuner.BestModel(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := model.Predict(ctx, canonical, opts.BatchSize)
	if err != nil {
		return nil, err
	}
	return m.pipe.Postprocess(raw)
}

// PredictSingle is Predict for single-output models, returning the one
// output series unwrapped.
func (m *AutoModel) PredictSingle(ctx context.Context, opts PredictOptions) (tensor.Series, error) {
	if len(m.heads) != 1 {
		return nil, fmt.Errorf("automodel: PredictSingle on a model with %d outputs", len(m.heads))
	}
	out, err := m.Predict(ctx, opts)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EvalOptions carries evaluation data in the same forms Fit accepts.
type EvalOptions struct {
	X         []tensor.Series
	Y         []tensor.Series
	Dataset   *dataset.Dataset
	BatchSize int
}

// Evaluate scores the tuner's current best model on the supplied data.
func (m *AutoModel) Evaluate(ctx context.Context, opts EvalOptions) (map[string]float64, error) {
	if m.state != StateReady {
		return nil, ErrNotFitted
	}
	canonical, err := m.pipe.ProcessXY(pipeline.Source{X: opts.X, Y: opts.Y, Dataset: opts.Dataset}, false, false, false)
	if err != nil {
		return nil, err
	}
	model, err := m.tuner.BestModel(ctx)
	if err != nil {
		return nil, err
	}
	return model.Evaluate(ctx, canonical, opts.BatchSize)
}

// ExportModel returns the current best trained model handle.
func (m *AutoModel) ExportModel(ctx context.Context) (tuner.Model, error) {
	if m.state != StateReady {
		return nil, ErrNotFitted
	}
	return m.tuner.BestModel(ctx)
}
