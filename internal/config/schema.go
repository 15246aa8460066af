package config

import (
	"github.com/hashicorp/hcl/v2"
)

// experimentFile represents the top-level structure of an experiment
// file for decoding.
type experimentFile struct {
	Experiments []*experimentBlock `hcl:"experiment,block"`
}

// experimentBlock is the HCL-specific shape of an `experiment` block.
type experimentBlock struct {
	Name      string `hcl:"name,label"`
	Tuner     string `hcl:"tuner,optional"`
	MaxTrials int    `hcl:"max_trials,optional"`
	Objective string `hcl:"objective,optional"`
	Seed      int64  `hcl:"seed,optional"`
	Directory string `hcl:"directory,optional"`
	Overwrite bool   `hcl:"overwrite,optional"`

	Inputs  []*inputBlock  `hcl:"input,block"`
	Outputs []*outputBlock `hcl:"output,block"`
	Fit     *fitBlock      `hcl:"fit,block"`
}

// inputBlock declares one model input and its data binding. Values is
// kept as a raw expression so inline literals are evaluated during
// translation, the same way manifest defaults are.
type inputBlock struct {
	Name   string         `hcl:"name,label"`
	Kind   string         `hcl:"kind"`
	CSV    string         `hcl:"csv,optional"`
	Values hcl.Expression `hcl:"values,optional"`
}

// outputBlock declares one model output and its data binding.
type outputBlock struct {
	Name   string         `hcl:"name,label"`
	Head   string         `hcl:"head"`
	CSV    string         `hcl:"csv,optional"`
	Values hcl.Expression `hcl:"values,optional"`
}

// fitBlock holds training parameters for the search.
type fitBlock struct {
	Epochs          int     `hcl:"epochs,optional"`
	BatchSize       int     `hcl:"batch_size,optional"`
	ValidationSplit float64 `hcl:"validation_split,optional"`
}
