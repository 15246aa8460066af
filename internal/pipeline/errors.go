package pipeline

import (
	"errors"
	"fmt"
)

// ErrMissingValidation is returned when a fit supplies neither explicit
// validation data nor a split fraction.
var ErrMissingValidation = errors.New("pipeline: either validation data or a validation split is required")

// ErrDatasetWithY is returned when a unified dataset is co-supplied with
// a separate y; a dataset already carries its own outputs.
var ErrDatasetWithY = errors.New("pipeline: y must be omitted when x is a dataset")

// ShapeMismatchError reports an arity disagreement between the declared
// graph and the supplied data, naming the side it occurred on and both
// counts so the caller can self-diagnose.
type ShapeMismatchError struct {
	In         string // "x" or "y"
	Validation bool
	Expected   int
	Actual     int
}

func (e *ShapeMismatchError) Error() string {
	inVal := ""
	if e.Validation {
		inVal = " in validation data"
	}
	return fmt.Sprintf("pipeline: expected %s%s to have %d series, got %d", e.In, inVal, e.Expected, e.Actual)
}
