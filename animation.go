package bewegung

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/keyframe"
	"github.com/copyandpaetow/bewegung-sub000/internal/sample"
	"github.com/copyandpaetow/bewegung-sub000/internal/sched"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

var (
	// ErrCanceled is returned to callers waiting on a computation that was
	// canceled.
	ErrCanceled = errors.New("animation canceled")
	// ErrEnded is returned by Prepare once the animation finished or was
	// canceled.
	ErrEnded = errors.New("animation has ended")
	// ErrNoPlayer is returned when playback is requested without a Player.
	ErrNoPlayer = errors.New("animation has no player")
)

// Animation is the playback state machine over one set of chunks.
//
// Keyframes are computed lazily on the first transition out of idle. While
// they are computed the animation is loading; the latest requested
// transition is replayed once the computation resolves. Methods are safe
// for concurrent use. Collaborators are called with internal locks held and
// must not call back into the Animation synchronously.
type Animation struct {
	root   *Element
	chunks []Chunk
	reader StyleReader
	writer StyleWriter
	player Player

	cfg        Config
	base       *zap.Logger
	log        *zap.Logger
	clock      Clock
	clockSet   bool
	ownClock   *sched.TickerClock
	structural []StructuralWatcher
	geometry   []GeometryWatcher

	// Computation side, guarded by computeMu.
	computeMu sync.Mutex
	flight    singleflight.Group
	queue     *sched.Queue
	builder   *graph.Builder
	sampler   *sample.Sampler
	engine    *diff.Engine
	synth     *keyframe.Synthesizer

	mu            sync.Mutex
	state         State
	pending       request
	generation    uint64
	passCancel    context.CancelFunc
	mutations     []Mutation
	geometryDirty bool
	rescan        bool
	current       *computation
	playing       *computation
	handles       []Handle
	layers        []mountedLayer
	overridden    []*Element
	callbacks     []Callback
	fired         int
	stop          chan struct{}
}

// New creates an idle animation of chunks over the tree below root.
// Malformed chunks are reported as *InputError before anything is computed.
func New(root *Element, chunks []Chunk, reader StyleReader, writer StyleWriter, opts ...Option) (*Animation, error) {
	if root == nil {
		return nil, fmt.Errorf("animation needs a root element")
	}
	if reader == nil || writer == nil {
		return nil, fmt.Errorf("animation needs a style reader and a style writer")
	}

	a := &Animation{
		root:   root,
		chunks: chunks,
		reader: reader,
		writer: writer,
		cfg:    DefaultConfig(),
		base:   zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := timeline.Normalize(chunks, root); err != nil {
		return nil, err
	}

	queue, err := sched.New(a.frameClock(), sched.WithBudget(a.cfg.Budget), sched.WithLogger(a.base))
	if err != nil {
		return nil, err
	}
	a.log = a.base.Named("animation")
	a.queue = queue
	a.sampler = sample.New(reader, writer, queue, a.base)
	a.engine = diff.New(a.base)
	a.synth = keyframe.New(a.base)
	return a, nil
}

// State returns the current playback state.
func (a *Animation) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Prepare computes the keyframes without starting playback.
func (a *Animation) Prepare(ctx context.Context) (*Result, error) {
	if a.State().Terminal() {
		return nil, ErrEnded
	}
	c, err := a.compute(ctx)
	if err != nil {
		return nil, err
	}
	return c.result(), nil
}

// Play starts or resumes playback.
func (a *Animation) Play(ctx context.Context) error {
	return a.request(ctx, request{to: StateRunning})
}

// Reverse plays backwards from the current position.
func (a *Animation) Reverse(ctx context.Context) error {
	return a.request(ctx, request{to: StateReversing})
}

// Scroll sets the position of every animation to progress in [0,1].
// Unless done, progress is clamped into [0.001, 0.999] so the animations
// never settle at either end. Callbacks crossed by the new position fire in
// offset order.
func (a *Animation) Scroll(ctx context.Context, progress float64, done bool) error {
	return a.request(ctx, request{to: StateScrolling, progress: progress, done: done})
}

// Pause pauses playback.
func (a *Animation) Pause() error {
	return a.request(context.Background(), request{to: StatePaused})
}

// Finish jumps to the end, fires the remaining callbacks and cleans up.
func (a *Animation) Finish() error {
	return a.request(context.Background(), request{to: StateFinished})
}

// Cancel stops playback and any computation in flight, then restores the
// tree.
func (a *Animation) Cancel() error {
	return a.request(context.Background(), request{to: StateCanceled})
}

type request struct {
	to       State
	progress float64
	done     bool
}

func (a *Animation) request(ctx context.Context, req request) error {
	a.mu.Lock()
	from := a.state
	if !from.can(req.to) {
		a.mu.Unlock()
		a.log.Debug("Transition ignored", zap.Stringer("from", from), zap.Stringer("to", req.to))
		return nil
	}

	switch {
	case from == StateLoading && req.to != StateCanceled:
		a.pending = req
		a.mu.Unlock()
		return a.await(ctx)
	case from == StateIdle && (a.current == nil || a.dirty()):
		a.state = StateLoading
		a.pending = req
		a.startWatchers()
		a.mu.Unlock()
		a.log.Debug("Loading", zap.Stringer("requested", req.to))
		return a.await(ctx)
	}

	cbs, err := a.enter(req)
	a.mu.Unlock()
	fire(cbs)
	return err
}

// await resolves the computation and replays the pending request. Only the
// first waiter to return replays; later ones find the state already moved.
func (a *Animation) await(ctx context.Context) error {
	_, err := a.compute(ctx)

	a.mu.Lock()
	if a.state != StateLoading {
		canceled := a.state == StateCanceled
		a.mu.Unlock()
		if canceled {
			return ErrCanceled
		}
		return nil
	}
	if err != nil {
		a.state = StateIdle
		a.stopWatchers()
		a.mu.Unlock()
		return err
	}

	req := a.pending
	a.log.Debug("Replaying transition", zap.Stringer("to", req.to))
	cbs, err := a.enter(req)
	if err != nil && a.state == StateLoading {
		a.state = StateIdle
		a.stopWatchers()
	}
	a.mu.Unlock()
	fire(cbs)
	return err
}

// enter performs a transition that passed its guard. Called with a.mu held;
// the returned callbacks must be fired after unlocking.
func (a *Animation) enter(req request) ([]Callback, error) {
	switch req.to {
	case StateCanceled:
		a.invalidate()
		for _, h := range a.handles {
			h.Cancel()
		}
		err := a.cleanup()
		a.state = StateCanceled
		return nil, err

	case StateFinished:
		for _, h := range a.handles {
			h.Finish()
		}
		if a.playing == nil && a.current != nil {
			a.callbacks, a.fired = a.current.callbacks, 0
		}
		cbs := a.due(math.Inf(1))
		err := a.cleanup()
		a.state = StateFinished
		return cbs, err
	}

	if a.playing == nil {
		if err := a.mount(a.current); err != nil {
			return nil, err
		}
		a.callbacks, a.fired = a.current.callbacks, 0
	}

	var cbs []Callback
	switch req.to {
	case StateRunning:
		for _, h := range a.handles {
			h.Play()
		}
	case StatePaused:
		for _, h := range a.handles {
			h.Pause()
		}
	case StateReversing:
		for _, h := range a.handles {
			h.Reverse()
		}
	case StateScrolling:
		progress := clampProgress(req.progress, req.done)
		at := time.Duration(math.Round(progress * float64(a.playing.runtime)))
		for _, h := range a.handles {
			h.Pause()
			h.SetCurrentTime(at)
		}
		cbs = a.due(progress)
	}
	a.state = req.to
	return cbs, nil
}

func clampProgress(progress float64, done bool) float64 {
	if math.IsNaN(progress) {
		progress = 0
	}
	if done {
		return min(max(progress, 0), 1)
	}
	return min(max(progress, 0.001), 0.999)
}

// invalidate makes any pass in flight stale. Called with a.mu held.
func (a *Animation) invalidate() {
	a.generation++
	if a.passCancel != nil {
		a.passCancel()
	}
}

func (a *Animation) dirty() bool {
	return len(a.mutations) > 0 || a.geometryDirty
}

// cleanup tears down playback and stops the watchers. Called with a.mu held.
func (a *Animation) cleanup() error {
	err := a.teardown()
	a.stopWatchers()
	if a.ownClock != nil {
		a.ownClock.Stop()
	}
	if err != nil {
		a.log.Warn("Cleanup incomplete", zap.Error(err))
	}
	return err
}

// refresh records a debounced batch of changes and, while playing, swaps in
// keyframes recomputed for the new tree at the current position.
func (a *Animation) refresh(ctx context.Context, mutations []Mutation, geometry bool) {
	a.mu.Lock()
	if a.state.Terminal() {
		a.mu.Unlock()
		return
	}
	a.mutations = append(a.mutations, mutations...)
	a.geometryDirty = a.geometryDirty || geometry
	a.invalidate()
	state := a.state
	a.mu.Unlock()

	a.log.Debug("Refreshing", zap.Stringer("state", state), zap.Int("mutations", len(mutations)), zap.Bool("geometry", geometry))
	if !state.playing() {
		return
	}

	c, err := a.compute(ctx)
	if err != nil {
		a.log.Warn("Recomputing keyframes failed", zap.Error(err))
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.playing() || c == a.playing {
		return
	}

	var at time.Duration
	if len(a.handles) > 0 {
		at = a.handles[0].CurrentTime()
	}
	for _, h := range a.handles {
		h.Cancel()
	}
	err = multierr.Append(a.teardown(), a.mount(c))
	if err != nil {
		a.log.Warn("Swapping keyframes failed", zap.Error(err))
	}
	a.callbacks = c.callbacks
	for _, h := range a.handles {
		h.SetCurrentTime(at)
		switch a.state {
		case StateRunning:
			h.Play()
		case StateReversing:
			h.Reverse()
		default:
			h.Pause()
		}
	}
}

func fire(cbs []Callback) {
	for _, cb := range cbs {
		if cb.Fn != nil {
			cb.Fn()
		}
	}
}
