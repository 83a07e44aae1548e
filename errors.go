package bewegung

import (
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

// InputError aggregates malformed chunk input. It is returned by New and
// before any computation pass starts.
type InputError = timeline.InputError

// UnboundedIterationError is returned for a chunk with infinite iterations.
type UnboundedIterationError = timeline.UnboundedIterationError

// DisjointRootError aborts a pass when an element is reached from two roots
// that do not contain each other under RootPolicyStrict.
type DisjointRootError = graph.DisjointRootError

var (
	// ErrMixedKeyframes is wrapped by InputError for chunks mixing list and
	// property-indexed keyframes.
	ErrMixedKeyframes = timeline.ErrMixedKeyframes
	// ErrNoTargets is wrapped by InputError for chunks without targets.
	ErrNoTargets = timeline.ErrNoTargets
)
