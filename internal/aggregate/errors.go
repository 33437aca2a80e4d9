package aggregate

import (
	"errors"
	"fmt"
)

// ErrAggregationFailed is returned when inputs were given but none
// produced a usable payload.
var ErrAggregationFailed = errors.New("aggregation failed: no valid documents")

// StageError identifies the pipeline stage where a fatal failure
// happened. It wraps the component error unchanged.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// DocumentError records one per-document failure. Collected, not fatal,
// unless the run has a single input.
type DocumentError struct {
	Path string
	Err  error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Err)
}

func (e DocumentError) Unwrap() error { return e.Err }
