// Package config loads experiment definitions from HCL files and
// translates them into the model the orchestrator consumes.
//
// An experiment file declares one `experiment` block: the tuner and its
// trial budget, the inputs (with their kind and data binding), the
// outputs (with their head), and an optional `fit` block for training
// parameters. Data is bound either to a CSV file or to inline `values`
// literals, so small experiments are self-contained.
package config
