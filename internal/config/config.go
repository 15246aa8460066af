package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/archon-ml/archon/internal/ctxlog"
	"github.com/archon-ml/archon/internal/graph"
)

// Experiment is the format-agnostic representation of one experiment.
type Experiment struct {
	Name      string
	Tuner     string
	MaxTrials int
	Objective string
	Seed      int64
	Directory string
	Overwrite bool

	Inputs  []*Input
	Outputs []*Output
	Fit     Fit
}

// Input declares one model input: its kind and where its data comes
// from. Exactly one of CSVPath and Values is set.
type Input struct {
	Name    string
	Kind    graph.Kind
	CSVPath string
	Values  [][]float64
}

// Output declares one model output: its head and where its training
// targets come from.
type Output struct {
	Name    string
	Head    string
	CSVPath string
	Values  [][]float64
}

// Fit holds the training parameters of the search. Zero values defer to
// the orchestrator's defaults.
type Fit struct {
	Epochs          int
	BatchSize       int
	ValidationSplit float64
}

// Load parses and decodes a single HCL experiment file. The file must
// contain exactly one `experiment` block.
func Load(ctx context.Context, filePath string) (*Experiment, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("decoding experiment file", "path", filePath)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
	}

	var parsed experimentFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
	}
	if len(parsed.Experiments) != 1 {
		return nil, fmt.Errorf("file %s must declare exactly one experiment block, found %d", filePath, len(parsed.Experiments))
	}

	exp, err := translateExperiment(parsed.Experiments[0])
	if err != nil {
		return nil, fmt.Errorf("in file %s: %w", filePath, err)
	}
	logger.Debug("decoded experiment",
		"name", exp.Name, "inputs", len(exp.Inputs), "outputs", len(exp.Outputs))
	return exp, nil
}

func translateExperiment(b *experimentBlock) (*Experiment, error) {
	exp := &Experiment{
		Name:      b.Name,
		Tuner:     b.Tuner,
		MaxTrials: b.MaxTrials,
		Objective: b.Objective,
		Seed:      b.Seed,
		Directory: b.Directory,
		Overwrite: b.Overwrite,
	}
	if len(b.Inputs) == 0 {
		return nil, fmt.Errorf("experiment '%s' declares no input blocks", b.Name)
	}
	if len(b.Outputs) == 0 {
		return nil, fmt.Errorf("experiment '%s' declares no output blocks", b.Name)
	}

	for _, in := range b.Inputs {
		kind, err := graph.ParseKind(in.Kind)
		if err != nil {
			return nil, fmt.Errorf("input '%s': %w", in.Name, err)
		}
		values, err := evalValues(in.Values)
		if err != nil {
			return nil, fmt.Errorf("input '%s': %w", in.Name, err)
		}
		if err := checkBinding(in.CSV, values); err != nil {
			return nil, fmt.Errorf("input '%s': %w", in.Name, err)
		}
		exp.Inputs = append(exp.Inputs, &Input{
			Name: in.Name, Kind: kind, CSVPath: in.CSV, Values: values,
		})
	}

	for _, out := range b.Outputs {
		switch out.Head {
		case "classification", "regression":
		default:
			return nil, fmt.Errorf("output '%s': unknown head %q, expected classification or regression", out.Name, out.Head)
		}
		values, err := evalValues(out.Values)
		if err != nil {
			return nil, fmt.Errorf("output '%s': %w", out.Name, err)
		}
		if err := checkBinding(out.CSV, values); err != nil {
			return nil, fmt.Errorf("output '%s': %w", out.Name, err)
		}
		exp.Outputs = append(exp.Outputs, &Output{
			Name: out.Name, Head: out.Head, CSVPath: out.CSV, Values: values,
		})
	}

	if b.Fit != nil {
		exp.Fit = Fit{
			Epochs:          b.Fit.Epochs,
			BatchSize:       b.Fit.BatchSize,
			ValidationSplit: b.Fit.ValidationSplit,
		}
	}
	return exp, nil
}

func checkBinding(csvPath string, values [][]float64) error {
	if csvPath != "" && values != nil {
		return fmt.Errorf("csv and values are mutually exclusive")
	}
	if csvPath == "" && values == nil {
		return fmt.Errorf("either csv or values is required")
	}
	return nil
}

// evalValues evaluates an inline `values` expression into rows. Both a
// matrix literal and a flat vector are accepted; a vector becomes
// single-element rows.
func evalValues(expr hcl.Expression) ([][]float64, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid values expression: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}

	if converted, err := convert.Convert(val, cty.List(cty.List(cty.Number))); err == nil {
		var rows [][]float64
		if err := gocty.FromCtyValue(converted, &rows); err != nil {
			return nil, fmt.Errorf("invalid values matrix: %w", err)
		}
		return rows, nil
	}

	converted, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("values must be a list of numbers or a list of number lists: %w", err)
	}
	var flat []float64
	if err := gocty.FromCtyValue(converted, &flat); err != nil {
		return nil, fmt.Errorf("invalid values vector: %w", err)
	}
	rows := make([][]float64, len(flat))
	for i, v := range flat {
		rows[i] = []float64{v}
	}
	return rows, nil
}
