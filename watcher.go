package bewegung

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StructuralWatcher reports structural mutations of the tree.
type StructuralWatcher interface {
	// Start begins delivering mutation batches until stop is closed.
	Start(mutations chan<- []Mutation, stop <-chan struct{})
}

// GeometryWatcher signals that an observed element crossed a visibility or
// size threshold. Signals trigger a recomputation.
type GeometryWatcher interface {
	// Start begins delivering signals until stop is closed.
	Start(signals chan<- *Element, stop <-chan struct{})
}

// TreeWatcher reports the mutations of an element tree through the
// mutation callback of its root.
type TreeWatcher struct {
	root *Element
}

// WatchTree creates a structural watcher on the tree below root.
func WatchTree(root *Element) *TreeWatcher {
	return &TreeWatcher{root: root}
}

// Start installs the root callback. Mutations made after stop is closed
// are dropped.
func (w *TreeWatcher) Start(mutations chan<- []Mutation, stop <-chan struct{}) {
	w.root.SetOnMutation(func(m Mutation) {
		select {
		case <-stop:
			return
		default:
		}
		select {
		case mutations <- []Mutation{m}:
		case <-stop:
		}
	})
}

// ChannelWatcher forwards values from a host channel.
// ChannelWatcher[*Element] is a GeometryWatcher and
// ChannelWatcher[[]Mutation] a StructuralWatcher.
type ChannelWatcher[T any] struct {
	ch <-chan T
}

// WatchChannel creates a watcher forwarding every value received on ch.
func WatchChannel[T any](ch <-chan T) *ChannelWatcher[T] {
	return &ChannelWatcher[T]{ch: ch}
}

// Start the watcher.
func (w *ChannelWatcher[T]) Start(out chan<- T, stop <-chan struct{}) {
	go func() {
		for {
			select {
			case <-stop:
				return
			case v, ok := <-w.ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-stop:
					return
				}
			}
		}
	}()
}

// startWatchers starts every configured watcher and the debounce loop.
// Called with a.mu held.
func (a *Animation) startWatchers() {
	if a.stop != nil || len(a.structural)+len(a.geometry) == 0 {
		return
	}
	a.stop = make(chan struct{})
	a.rescan = true

	mutations := make(chan []Mutation, 16)
	signals := make(chan *Element, 16)
	for _, w := range a.structural {
		w.Start(mutations, a.stop)
	}
	for _, w := range a.geometry {
		w.Start(signals, a.stop)
	}
	go a.watch(mutations, signals, a.stop)
	a.log.Debug("Watchers started", zap.Int("structural", len(a.structural)), zap.Int("geometry", len(a.geometry)))
}

// stopWatchers is called with a.mu held.
func (a *Animation) stopWatchers() {
	if a.stop == nil {
		return
	}
	close(a.stop)
	a.stop = nil
}

func (a *Animation) watch(mutations <-chan []Mutation, signals <-chan *Element, stop <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	d := newDebouncer(a.cfg.Debounce, a.cfg.MaxBatch)
	defer d.stop()
	flush := func() {
		ms, geometry := d.take()
		a.refresh(ctx, ms, geometry)
	}

	for {
		select {
		case <-stop:
			return
		case ms := <-mutations:
			if d.add(ms) {
				flush()
			}
		case el := <-signals:
			a.log.Debug("Geometry signal", zap.Stringer("element", el))
			d.signal()
		case <-d.timerC():
			flush()
		}
	}
}

// debouncer collects mutations until the window passes without new ones
// or the buffer fills.
type debouncer struct {
	window    time.Duration
	maxBuffer int

	mutations []Mutation
	geometry  bool
	timer     *time.Timer
	timerCh   <-chan time.Time
}

func newDebouncer(window time.Duration, maxBuffer int) *debouncer {
	if window <= 0 {
		window = 250 * time.Millisecond
	}
	if maxBuffer <= 0 {
		maxBuffer = 1000
	}
	return &debouncer{window: window, maxBuffer: maxBuffer}
}

// add buffers a batch and restarts the window. It reports true when the
// buffer is full and should be flushed right away.
func (d *debouncer) add(ms []Mutation) bool {
	d.mutations = append(d.mutations, ms...)
	if len(d.mutations) >= d.maxBuffer {
		return true
	}
	d.restart()
	return false
}

// signal records a geometry change and restarts the window.
func (d *debouncer) signal() {
	d.geometry = true
	d.restart()
}

func (d *debouncer) restart() {
	if d.timer == nil {
		d.timer = time.NewTimer(d.window)
		d.timerCh = d.timer.C
		return
	}
	d.timer.Reset(d.window)
}

func (d *debouncer) timerC() <-chan time.Time {
	return d.timerCh
}

// take returns the buffered changes and resets the debouncer.
func (d *debouncer) take() ([]Mutation, bool) {
	ms, geometry := d.mutations, d.geometry
	d.mutations, d.geometry = nil, false
	d.stop()
	return ms, geometry
}

func (d *debouncer) stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer, d.timerCh = nil, nil
	}
}
