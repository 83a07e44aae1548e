package timeline

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrMixedKeyframes is reported when a chunk uses list and property-indexed
// keyframes at the same time.
var ErrMixedKeyframes = errors.New("mixed list and property-indexed keyframe syntax")

// ErrNoTargets is reported when a chunk resolves to no elements.
var ErrNoTargets = errors.New("chunk has no target elements")

// InputError aggregates every malformed-input problem found across all
// chunks. It is surfaced before any computation starts.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return "invalid animation input: " + e.Err.Error()
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *InputError) Unwrap() []error {
	return multierr.Errors(e.Err)
}

// UnboundedIterationError is returned for a chunk with infinite iterations;
// an infinite animation has no final state to diff against.
type UnboundedIterationError struct {
	Chunk int
}

func (e *UnboundedIterationError) Error() string {
	return fmt.Sprintf("chunk %d: unbounded iteration count", e.Chunk)
}
