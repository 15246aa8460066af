// Package pipeline normalizes arbitrary user-supplied training,
// validation, and prediction data into the canonical dataset shape the
// graph declares. It validates arity before any adapter is touched, fits
// each slot's adapter exactly once on the first training pass, and pushes
// adapter-learned configuration back into the search space so trials see
// data-dependent shapes and cardinalities.
//
// The pipeline is a one-shot, synchronous pass with no internal
// concurrency; callers serialize fits per orchestrator instance.
package pipeline

import (
	"fmt"

	"github.com/archon-ml/archon/internal/adapter"
	"github.com/archon-ml/archon/internal/dataset"
	"github.com/archon-ml/archon/internal/graph"
	"github.com/archon-ml/archon/internal/tensor"
)

// Source is one bundle of user-supplied data: either per-slot series
// (X, and Y when supervised) or a single unified dataset. Supplying a
// dataset together with X or Y is an error.
type Source struct {
	X       []tensor.Series
	Y       []tensor.Series
	Dataset *dataset.Dataset
}

// configReceiver is the slice of the node/head surface the pipeline
// needs: somewhere to push a fitted adapter's learned configuration.
type configReceiver interface {
	ConfigFromAdapter(a adapter.Adapter)
}

// Pipeline converts raw data for one fixed graph boundary. One pipeline
// is owned by one orchestrator; its adapters are fit on the first
// training pass and reused read-only for every later conversion.
type Pipeline struct {
	inputs []*graph.Node
	heads  []graph.Head

	inAdapters  []adapter.Adapter
	outAdapters []adapter.Adapter
}

// AdapterForKind returns the bundled input adapter for a semantic kind.
func AdapterForKind(k graph.Kind) adapter.Adapter {
	switch k {
	case graph.KindImage:
		return adapter.NewImage()
	case graph.KindText:
		return adapter.NewText()
	case graph.KindStructured:
		return adapter.NewStructured()
	default:
		return adapter.NewGeneric()
	}
}

// New builds a pipeline for the given boundary. inAdapters must have one
// entry per input and outAdapters one per head; both come unfitted from
// the orchestrator's construction pass.
func New(inputs []*graph.Node, heads []graph.Head, inAdapters, outAdapters []adapter.Adapter) (*Pipeline, error) {
	if len(inAdapters) != len(inputs) {
		return nil, fmt.Errorf("pipeline: %d input adapters for %d inputs", len(inAdapters), len(inputs))
	}
	if len(outAdapters) != len(heads) {
		return nil, fmt.Errorf("pipeline: %d output adapters for %d heads", len(outAdapters), len(heads))
	}
	return &Pipeline{
		inputs:      inputs,
		heads:       heads,
		inAdapters:  inAdapters,
		outAdapters: outAdapters,
	}, nil
}

// InputAdapters exposes the per-input adapters in declared order.
func (p *Pipeline) InputAdapters() []adapter.Adapter { return p.inAdapters }

// OutputAdapters exposes the per-head adapters in declared order.
func (p *Pipeline) OutputAdapters() []adapter.Adapter { return p.outAdapters }

// checkFormat validates the arity of a source against the declared
// boundary before any adapter runs, so a mismatch never leaves partial
// fitting side effects behind.
func (p *Pipeline) checkFormat(src Source, validation, predict bool) error {
	if src.Dataset != nil {
		if len(src.Y) > 0 {
			return fmt.Errorf("%w (validation=%t)", ErrDatasetWithY, validation)
		}
		if len(src.X) > 0 {
			return fmt.Errorf("pipeline: x series and a dataset were both supplied (validation=%t)", validation)
		}
		return p.checkDatasetFormat(src.Dataset, validation, predict)
	}

	if len(src.X) != len(p.inputs) {
		return &ShapeMismatchError{In: "x", Validation: validation, Expected: len(p.inputs), Actual: len(src.X)}
	}
	if !predict && len(src.Y) != len(p.heads) {
		return &ShapeMismatchError{In: "y", Validation: validation, Expected: len(p.heads), Actual: len(src.Y)}
	}
	return nil
}

func (p *Pipeline) checkDatasetFormat(ds *dataset.Dataset, validation, predict bool) error {
	if ds.Paired() {
		if ds.InputArity() != len(p.inputs) {
			return &ShapeMismatchError{In: "x", Validation: validation, Expected: len(p.inputs), Actual: ds.InputArity()}
		}
		if !predict && ds.OutputArity() != len(p.heads) {
			return &ShapeMismatchError{In: "y", Validation: validation, Expected: len(p.heads), Actual: ds.OutputArity()}
		}
		return nil
	}

	total := len(ds.Columns())
	if predict {
		if total != len(p.inputs) {
			return &ShapeMismatchError{In: "x", Validation: validation, Expected: len(p.inputs), Actual: total}
		}
		return nil
	}
	if total != len(p.inputs)+len(p.heads) {
		return &ShapeMismatchError{In: "x", Validation: validation, Expected: len(p.inputs) + len(p.heads), Actual: total}
	}
	return nil
}

// splitSource resolves a source into raw per-slot x and y columns. For a
// unified dataset the per-element structure is divided into an input
// substructure and an output substructure by the declared counts.
func (p *Pipeline) splitSource(src Source, predict bool) (x, y []tensor.Series) {
	if src.Dataset == nil {
		return src.X, src.Y
	}
	if src.Dataset.Paired() {
		return src.Dataset.Inputs(), src.Dataset.Outputs()
	}
	cols := src.Dataset.Columns()
	if predict {
		return cols, nil
	}
	return cols[:len(p.inputs)], cols[len(p.inputs):]
}

// adapt runs one adapter per slot in declared order. On the first fit
// pass the adapter learns from the slot and pushes its learned
// configuration into the slot's owner (input node or head) so the search
// space observes it before any trial runs. Adapters are fit exactly
// once: a repeated fit pass, as in a resumed search, transforms
// read-only.
func adapt(sources []tensor.Series, fit bool, owners []configReceiver, adapters []adapter.Adapter) ([]tensor.Series, error) {
	adapted := make([]tensor.Series, 0, len(sources))
	for i, src := range sources {
		var (
			out tensor.Series
			err error
		)
		if fit && !adapters[i].Fitted() {
			out, err = adapters[i].FitTransform(src)
			if err == nil {
				owners[i].ConfigFromAdapter(adapters[i])
			}
		} else {
			out, err = adapters[i].Transform(src)
		}
		if err != nil {
			return nil, fmt.Errorf("pipeline: adapting slot %d: %w", i, err)
		}
		adapted = append(adapted, out)
	}
	return adapted, nil
}

// ProcessXY converts one source into a canonical dataset. fit controls
// whether adapters learn; validation only affects error reporting;
// predict skips the output side entirely.
func (p *Pipeline) ProcessXY(src Source, fit, validation, predict bool) (*dataset.Dataset, error) {
	if err := p.checkFormat(src, validation, predict); err != nil {
		return nil, err
	}
	x, y := p.splitSource(src, predict)

	inOwners := make([]configReceiver, len(p.inputs))
	for i, n := range p.inputs {
		inOwners[i] = n
	}
	x, err := adapt(x, fit, inOwners, p.inAdapters)
	if err != nil {
		return nil, err
	}

	if predict {
		return dataset.Zip(x, nil)
	}

	outOwners := make([]configReceiver, len(p.heads))
	for i, h := range p.heads {
		outOwners[i] = h
	}
	y, err = adapt(y, fit, outOwners, p.outAdapters)
	if err != nil {
		return nil, err
	}
	return dataset.Zip(x, y)
}

// Prepared is the outcome of one training-data preparation pass.
type Prepared struct {
	Train      *dataset.Dataset
	Validation *dataset.Dataset

	// FitOnValidation records the final-fit policy: true when the
	// validation partition was carved out of the training data by a
	// split fraction, so the eventual fit on the best architecture
	// should retrain on the reunited dataset. False when the caller
	// supplied its own validation data.
	FitOnValidation bool
}

// PrepareFit validates and converts training data, fitting every adapter,
// and resolves the validation policy: explicit validation data wins over
// a split fraction; neither is an error. A split takes the trailing
// fraction of the training data in its current order.
func (p *Pipeline) PrepareFit(train Source, validation *Source, split float64) (*Prepared, error) {
	if validation == nil && split == 0 {
		return nil, ErrMissingValidation
	}

	trainDS, err := p.ProcessXY(train, true, false, false)
	if err != nil {
		return nil, err
	}

	if validation != nil {
		valDS, err := p.ProcessXY(*validation, false, true, false)
		if err != nil {
			return nil, err
		}
		return &Prepared{Train: trainDS, Validation: valDS, FitOnValidation: false}, nil
	}

	trainDS, valDS, err := trainDS.Split(split)
	if err != nil {
		return nil, err
	}
	return &Prepared{Train: trainDS, Validation: valDS, FitOnValidation: true}, nil
}

// ExtractX reduces an already-assembled dataset to its input part for
// prediction. Recognized element structures: flat (at most one column),
// explicitly paired (x, y), and the single-IO two-column form. Anything
// else is rejected rather than passed through, so malformed inputs fail
// here instead of deep inside a trial.
func (p *Pipeline) ExtractX(ds *dataset.Dataset) (*dataset.Dataset, error) {
	if ds.Paired() {
		return dataset.FromColumns(ds.Inputs())
	}
	cols := ds.Columns()
	if len(cols) <= 1 {
		return ds, nil
	}
	if len(cols) == 2 && len(p.inputs) == 1 && len(p.heads) == 1 {
		return dataset.FromColumns(cols[:1])
	}
	return nil, &ShapeMismatchError{In: "x", Expected: len(p.inputs), Actual: len(cols)}
}

// Postprocess applies each head's adapter to the raw model output, in
// declared order, converting canonical predictions to user-facing form.
func (p *Pipeline) Postprocess(raw []tensor.Series) ([]tensor.Series, error) {
	if len(raw) != len(p.outAdapters) {
		return nil, &ShapeMismatchError{In: "y", Expected: len(p.outAdapters), Actual: len(raw)}
	}
	out := make([]tensor.Series, 0, len(raw))
	for i, series := range raw {
		post, err := p.outAdapters[i].Postprocess(series)
		if err != nil {
			return nil, fmt.Errorf("pipeline: postprocessing output %d: %w", i, err)
		}
		out = append(out, post)
	}
	return out, nil
}
