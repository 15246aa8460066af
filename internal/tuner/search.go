package tuner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/archon-ml/archon/internal/ctxlog"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/tuner/triallog"
)

// ErrNoBestModel is returned by BestModel before any search has
// produced a trained candidate.
var ErrNoBestModel = errors.New("tuner: no trained model available, run Search first")

// strategy is the pluggable trial-proposal policy behind the shared
// search loop.
type strategy interface {
	// propose returns one hyperparameter assignment for the next trial.
	propose(space []graph.HyperParam, history []Trial, best *Trial, rng *rand.Rand) map[string]float64

	// trialEpochs maps the trial index to its training budget; most
	// strategies train every trial with the full budget.
	trialEpochs(trialIndex, epochs int) int
}

// searchTuner runs the shared trial loop for all bundled strategies.
// One Search call is serialized against the next; the orchestrator's
// single blocking call discipline means the lock is uncontended in
// normal use.
type searchTuner struct {
	opts  Options
	strat strategy
	rng   *rand.Rand

	mu        sync.Mutex
	log       *triallog.Log
	logLoaded bool
	history   []Trial
	best      *Trial
	bestModel *linearModel
}

func newSearchTuner(opts Options, s strategy) (Tuner, error) {
	if opts.MaxTrials <= 0 {
		opts.MaxTrials = 100
	}
	if opts.Objective.Name == "" {
		opts.Objective = ParseObjective("")
	}
	return &searchTuner{
		opts:  opts,
		strat: s,
		// The seed is threaded in explicitly; no ambient global RNG
		// state is touched anywhere in a search.
		rng: rand.New(rand.NewSource(opts.Seed)),
	}, nil
}

// loadLog opens the trial log once per tuner and, when resuming, replays
// the stored records into the in-memory trial accounting. Without a
// configured directory the tuner keeps records in memory only.
func (t *searchTuner) loadLog(ctx context.Context) error {
	if t.logLoaded || t.opts.Directory == "" {
		t.logLoaded = true
		return nil
	}
	log, err := triallog.Open(ctx, t.opts.Directory, t.opts.ProjectName, t.opts.Overwrite)
	if err != nil {
		return err
	}
	t.log = log
	t.logLoaded = true

	if t.opts.Overwrite {
		return nil
	}
	records, err := log.All(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		trial := Trial(rec)
		t.history = append(t.history, trial)
		if t.best == nil || t.opts.Objective.Better(trial.Score, t.best.Score) {
			best := trial
			t.best = &best
		}
	}
	return nil
}

// Search runs trials until the budget is exhausted, then fits the best
// candidate for serving. Repeated calls resume the same accounting.
func (t *searchTuner) Search(ctx context.Context, req SearchRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	if err := t.loadLog(ctx); err != nil {
		return err
	}

	space := req.Graph.Params()
	epochs := req.Epochs
	if epochs <= 0 {
		epochs = 10
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	for len(t.history) < t.opts.MaxTrials {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := t.strat.propose(space, t.history, t.best, t.rng)
		trialEpochs := t.strat.trialEpochs(len(t.history), epochs)

		model := newLinearModel(req.Graph, params)
		if err := model.train(ctx, req.Train, trialEpochs, batchSize); err != nil {
			return fmt.Errorf("tuner: training trial %d: %w", len(t.history), err)
		}
		metrics, err := model.Evaluate(ctx, req.Validation, batchSize)
		if err != nil {
			return fmt.Errorf("tuner: evaluating trial %d: %w", len(t.history), err)
		}
		score, ok := metrics[t.opts.Objective.Metric()]
		if !ok {
			score = metrics["loss"]
		}

		trial := Trial{ID: uuid.NewString(), Params: params, Score: score, Epochs: trialEpochs}
		t.history = append(t.history, trial)
		if t.log != nil {
			if err := t.log.Append(ctx, triallog.Record(trial)); err != nil {
				return fmt.Errorf("tuner: recording trial: %w", err)
			}
		}
		if t.best == nil || t.opts.Objective.Better(score, t.best.Score) {
			best := trial
			t.best = &best
			t.bestModel = model
		}
		logger.Debug("trial complete",
			"trial", len(t.history), "score", score, "objective", t.opts.Objective.Name)
		for _, cb := range req.Callbacks {
			cb.OnTrialEnd(trial)
		}
	}

	return t.finalFit(ctx, req, epochs, batchSize)
}

// finalFit retrains the best candidate for serving: on the reunited
// train+validation data when the validation partition came from a split,
// and whenever a resumed search has trial records but no trained model.
func (t *searchTuner) finalFit(ctx context.Context, req SearchRequest, epochs, batchSize int) error {
	if t.best == nil || (!req.FitOnValidation && t.bestModel != nil) {
		return nil
	}
	data := req.Train
	if req.FitOnValidation {
		full, err := req.Train.Concat(req.Validation)
		if err != nil {
			return fmt.Errorf("tuner: reuniting datasets for the final fit: %w", err)
		}
		data = full
	}
	model := newLinearModel(req.Graph, t.best.Params)
	if err := model.train(ctx, data, epochs, batchSize); err != nil {
		return fmt.Errorf("tuner: final fit: %w", err)
	}
	t.bestModel = model
	return nil
}

// BestModel returns the current best trained realization.
func (t *searchTuner) BestModel(ctx context.Context) (Model, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bestModel == nil {
		return nil, ErrNoBestModel
	}
	return t.bestModel, nil
}
