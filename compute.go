package bewegung

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/keyframe"
	"github.com/copyandpaetow/bewegung-sub000/internal/sample"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
	"github.com/copyandpaetow/bewegung-sub000/internal/traverse"
)

// errStalePass is returned when a pass ended without its sampling finishing.
var errStalePass = errors.New("computation pass went stale")

// computation is the result of one pass.
type computation struct {
	generation uint64
	timeline   timeline.Timeline
	runtime    time.Duration
	graph      *graph.Graph
	series     map[graph.Key]diff.Series
	diff       *diff.Result
	plan       *keyframe.Plan
	// callbacks are sorted by global offset
	callbacks []Callback
}

// Result is the outcome of a computation pass, keyed by element.
type Result struct {
	Generation uint64
	Timeline   []float64
	Runtime    time.Duration
	Elements   map[*Element][]Keyframe
	Layers     map[*Element][]Synthetic
	Overrides  map[*Element]map[string]string
}

func (c *computation) result() *Result {
	r := &Result{
		Generation: c.generation,
		Timeline:   slices.Clone(c.timeline),
		Runtime:    c.runtime,
		Elements:   make(map[*Element][]Keyframe, len(c.plan.Elements)),
		Layers:     make(map[*Element][]Synthetic),
		Overrides:  make(map[*Element]map[string]string, len(c.plan.Overrides)),
	}
	for k, frames := range c.plan.Elements {
		r.Elements[c.graph.Node(k)] = frames
	}
	for _, s := range c.plan.Synthetics {
		el := c.graph.Node(s.For)
		r.Layers[el] = append(r.Layers[el], s)
	}
	for k, props := range c.plan.Overrides {
		r.Overrides[c.graph.Node(k)] = props
	}
	return r
}

// compute returns the current computation, running a pass when there is
// none or pending changes make it stale. Concurrent callers share one pass.
func (a *Animation) compute(ctx context.Context) (*computation, error) {
	a.mu.Lock()
	if c := a.current; c != nil && !a.dirty() {
		a.mu.Unlock()
		return c, nil
	}
	a.mu.Unlock()

	ch := a.flight.DoChan("compute", func() (any, error) {
		return a.run(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*computation), nil
	}
}

// run repeats passes until one completes without being invalidated.
func (a *Animation) run(ctx context.Context) (*computation, error) {
	a.computeMu.Lock()
	defer a.computeMu.Unlock()

	reuse := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.mu.Lock()
		if a.state == StateCanceled {
			a.mu.Unlock()
			return nil, ErrCanceled
		}
		gen := a.generation
		mutations, geometry := a.mutations, a.geometryDirty
		a.mutations, a.geometryDirty = nil, false
		var prev *computation
		if reuse {
			prev = a.current
		}
		if a.rescan {
			a.builder, a.rescan = nil, false
		}
		passCtx, cancel := context.WithCancel(ctx)
		a.passCancel = cancel
		a.mu.Unlock()

		c, err := a.pass(passCtx, prev, mutations, geometry)
		cancel()

		a.mu.Lock()
		a.passCancel = nil
		stale := a.generation != gen
		canceled := a.state == StateCanceled
		if !stale && err == nil {
			a.current = c
		}
		a.mu.Unlock()

		switch {
		case canceled:
			return nil, ErrCanceled
		case stale:
			a.log.Debug("Pass invalidated, starting over", zap.Uint64("generation", gen))
			reuse = false
			continue
		case err != nil:
			return nil, err
		}
		return c, nil
	}
}

// pass brings the traversal list up to date and, unless prev is still
// valid, normalizes, builds the graph, samples, diffs and synthesizes. When
// the builder patched the graph of prev, only the stale part of the patched
// graph is sampled again and the readouts of everything else carry over.
func (a *Animation) pass(ctx context.Context, prev *computation, mutations []Mutation, geometry bool) (*computation, error) {
	fresh := a.builder == nil
	if fresh {
		a.builder = graph.NewBuilder(traverse.New(a.root), a.cfg.Policy(), a.base)
	}
	if prev != nil && len(mutations) == 0 && !geometry {
		return prev, nil
	}

	res, err := timeline.Normalize(a.chunks, a.root)
	if err != nil {
		return nil, err
	}

	var delta graph.Delta
	if !fresh && len(mutations) > 0 {
		if delta, err = a.builder.Patch(mutations, res.Chunks); err != nil {
			return nil, err
		}
	}
	incremental := prev != nil && !geometry && delta.From != nil && delta.From == prev.graph &&
		slices.Equal(prev.timeline, res.Timeline)
	if incremental && !delta.Changed() {
		a.log.Debug("Mutations outside the animated region", zap.Int("mutations", len(mutations)))
		return prev, nil
	}

	g := delta.Graph
	if !delta.Changed() {
		if g, err = a.builder.Build(res.Chunks); err != nil {
			return nil, err
		}
	}
	keys := g.Keys()
	var (
		prevDiff *diff.Result
		settled  func(graph.Key) (graph.Key, bool)
	)
	if incremental {
		keys, prevDiff, settled = delta.Stale, prev.diff, delta.Settled
	}

	a.queue.Invalidate()
	var (
		series     map[graph.Key]diff.Series
		restoreErr error
		sampled    bool
	)
	styles := sample.ResolveStyles(res.Chunks, res.Timeline)
	a.sampler.ScheduleKeys(g, keys, res.Timeline, styles, func(s map[graph.Key]diff.Series, err error) {
		series, restoreErr, sampled = s, err, true
	})
	if err := a.drain(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("sampling interrupted: %w", err), a.sampler.Restore(g))
	}
	if !sampled {
		return nil, errStalePass
	}
	if restoreErr != nil {
		return nil, fmt.Errorf("restoring sampled styles: %w", restoreErr)
	}
	if incremental {
		for k, old := range delta.Reused {
			series[k] = prev.series[old]
		}
	}

	d := a.engine.Update(g, series, prevDiff, settled)
	plan := a.synth.Synthesize(keyframe.Input{
		Graph:    g,
		Timeline: res.Timeline,
		Chunks:   res.Chunks,
		Series:   series,
		Diff:     d,
	})

	a.log.Debug("Pass complete",
		zap.Uint64("generation", g.Generation),
		zap.Int("offsets", len(res.Timeline)),
		zap.Int("elements", g.Len()),
		zap.Int("sampled", len(keys)),
		zap.Int("animated", len(plan.Elements)))

	return &computation{
		generation: g.Generation,
		timeline:   res.Timeline,
		runtime:    res.TotalRuntime,
		graph:      g,
		series:     series,
		diff:       d,
		plan:       plan,
		callbacks:  callbacksOf(res.Chunks),
	}, nil
}

// drain runs the queued sampling tasks, frame by frame unless the
// animation was built with a nil clock.
func (a *Animation) drain(ctx context.Context) error {
	if a.clockSet && a.clock == nil {
		a.queue.Flush()
		return nil
	}
	return a.queue.Run(ctx)
}

func callbacksOf(chunks []timeline.Normalized) []Callback {
	var out []Callback
	for _, c := range chunks {
		out = append(out, c.Callbacks...)
	}
	slices.SortStableFunc(out, func(x, y Callback) int {
		return cmp.Compare(x.Offset, y.Offset)
	})
	return out
}
