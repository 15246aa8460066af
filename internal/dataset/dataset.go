// Package dataset implements the canonical multi-input/multi-output
// dataset: an ordered, batchable collection of (input-tuple, output-tuple)
// elements whose arities are fixed at construction. Only splitting and
// batching are permitted transformations; element count and arity never
// change after a dataset is built.
package dataset

import (
	"errors"
	"fmt"

	"github.com/archon-ml/archon/internal/tensor"
)

// ErrColumnLength is returned when the columns of a dataset disagree on
// the number of examples they carry.
var ErrColumnLength = errors.New("dataset: columns have different lengths")

// ErrBadSplit is returned for split fractions outside (0, 1) or splits
// that would leave either partition empty.
var ErrBadSplit = errors.New("dataset: invalid split fraction")

// Dataset is an ordered collection of examples held column-wise: one
// tensor series per input slot and one per output slot. A dataset built
// by Zip is "paired" (it knows which columns are inputs and which are
// outputs); a dataset built by FromColumns is an unpaired bag of columns
// whose interpretation is up to the consumer.
type Dataset struct {
	inputs  []tensor.Series
	outputs []tensor.Series
	paired  bool
}

// Zip combines per-slot input and output columns into one paired dataset.
// All columns must have the same length. The output slice may be empty
// for prediction-mode datasets.
func Zip(inputs, outputs []tensor.Series) (*Dataset, error) {
	n := -1
	for i, col := range inputs {
		if n == -1 {
			n = col.Len()
		} else if col.Len() != n {
			return nil, fmt.Errorf("%w: input %d has %d examples, input 0 has %d", ErrColumnLength, i, col.Len(), n)
		}
	}
	for i, col := range outputs {
		if n == -1 {
			n = col.Len()
		} else if col.Len() != n {
			return nil, fmt.Errorf("%w: output %d has %d examples, expected %d", ErrColumnLength, i, col.Len(), n)
		}
	}
	return &Dataset{
		inputs:  append([]tensor.Series(nil), inputs...),
		outputs: append([]tensor.Series(nil), outputs...),
		paired:  true,
	}, nil
}

// FromColumns wraps already-collected columns as an unpaired dataset,
// the shape in which callers hand over pre-assembled data whose x/y
// partitioning has not been decided yet.
func FromColumns(cols []tensor.Series) (*Dataset, error) {
	n := -1
	for i, col := range cols {
		if n == -1 {
			n = col.Len()
		} else if col.Len() != n {
			return nil, fmt.Errorf("%w: column %d has %d examples, column 0 has %d", ErrColumnLength, i, col.Len(), n)
		}
	}
	return &Dataset{inputs: append([]tensor.Series(nil), cols...)}, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	if len(d.inputs) > 0 {
		return d.inputs[0].Len()
	}
	if len(d.outputs) > 0 {
		return d.outputs[0].Len()
	}
	return 0
}

// InputArity returns the number of input slots.
func (d *Dataset) InputArity() int { return len(d.inputs) }

// OutputArity returns the number of output slots.
func (d *Dataset) OutputArity() int { return len(d.outputs) }

// Paired reports whether the dataset carries an explicit (x, y) pairing.
func (d *Dataset) Paired() bool { return d.paired }

// Inputs returns the input columns in slot order.
func (d *Dataset) Inputs() []tensor.Series { return d.inputs }

// Outputs returns the output columns in slot order.
func (d *Dataset) Outputs() []tensor.Series { return d.outputs }

// Columns returns every column in order, inputs first. For an unpaired
// dataset this is just its columns.
func (d *Dataset) Columns() []tensor.Series {
	cols := make([]tensor.Series, 0, len(d.inputs)+len(d.outputs))
	cols = append(cols, d.inputs...)
	cols = append(cols, d.outputs...)
	return cols
}

// Split partitions the dataset deterministically: the trailing fraction
// of examples, in current order, becomes the second partition. No
// shuffling happens here; callers that want a shuffled split shuffle
// before building the dataset.
func (d *Dataset) Split(fraction float64) (*Dataset, *Dataset, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("%w: %v is outside (0, 1)", ErrBadSplit, fraction)
	}
	n := d.Len()
	cut := n - int(float64(n)*fraction)
	if cut <= 0 || cut >= n {
		return nil, nil, fmt.Errorf("%w: %v leaves an empty partition for %d examples", ErrBadSplit, fraction, n)
	}
	head := d.slice(0, cut)
	tail := d.slice(cut, n)
	return head, tail, nil
}

// Concat reunites two datasets of identical arity, preserving order:
// d's examples first, then other's. Used for the final fit on the full
// dataset after a split-based search.
func (d *Dataset) Concat(other *Dataset) (*Dataset, error) {
	if len(other.inputs) != len(d.inputs) || len(other.outputs) != len(d.outputs) {
		return nil, fmt.Errorf("dataset: cannot concat arity (%d, %d) with (%d, %d)",
			len(d.inputs), len(d.outputs), len(other.inputs), len(other.outputs))
	}
	joined := &Dataset{paired: d.paired}
	for i, col := range d.inputs {
		joined.inputs = append(joined.inputs, append(append(tensor.Series{}, col...), other.inputs[i]...))
	}
	for i, col := range d.outputs {
		joined.outputs = append(joined.outputs, append(append(tensor.Series{}, col...), other.outputs[i]...))
	}
	return joined, nil
}

func (d *Dataset) slice(from, to int) *Dataset {
	out := &Dataset{paired: d.paired}
	for _, col := range d.inputs {
		out.inputs = append(out.inputs, col.Slice(from, to))
	}
	for _, col := range d.outputs {
		out.outputs = append(out.outputs, col.Slice(from, to))
	}
	return out
}

// Batch is one stacked slice of the dataset: each slot's examples are
// combined into a single tensor with a leading batch dimension.
type Batch struct {
	Inputs  []tensor.Tensor
	Outputs []tensor.Tensor
	Size    int
}

// Batches stacks the dataset into consecutive batches of at most size
// examples; the final batch may be smaller. Batching is the last step
// before data is handed to training or prediction.
func (d *Dataset) Batches(size int) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dataset: batch size must be positive, got %d", size)
	}
	n := d.Len()
	var batches []Batch
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		b := Batch{Size: end - start}
		for _, col := range d.inputs {
			st, err := col.Slice(start, end).Stack()
			if err != nil {
				return nil, err
			}
			b.Inputs = append(b.Inputs, st)
		}
		for _, col := range d.outputs {
			st, err := col.Slice(start, end).Stack()
			if err != nil {
				return nil, err
			}
			b.Outputs = append(b.Outputs, st)
		}
		batches = append(batches, b)
	}
	return batches, nil
}
