// Package sched runs computation work as small tasks spread over repaint
// frames.
//
// Tasks are drained for a fraction of every frame and the queue yields to the
// host until the next tick. A task that schedules more work while it runs gets
// that work placed right behind itself, ahead of anything queued earlier, so
// recursively discovered work completes depth first.
//
// A Queue is not safe for concurrent use; drive it from one goroutine.
package sched

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultBudget is the share of a frame spent draining tasks.
const DefaultBudget = 0.5

type task struct {
	fn         func()
	generation uint64
}

// Queue is a cooperative task queue.
type Queue struct {
	clock    Clock
	interval time.Duration
	budget   float64
	log      *zap.Logger

	tasks      []task
	running    bool
	cursor     int
	generation uint64
}

// Option configures a Queue.
type Option func(*Queue) error

// WithBudget sets the share of each frame spent running tasks.
func WithBudget(share float64) Option {
	return func(q *Queue) error {
		if share <= 0 || share > 1 {
			return fmt.Errorf("frame budget must be in (0,1], got %v", share)
		}
		q.budget = share
		return nil
	}
}

// WithInterval skips calibration and uses a fixed repaint interval.
func WithInterval(d time.Duration) Option {
	return func(q *Queue) error {
		if d <= 0 {
			return fmt.Errorf("frame interval must be positive, got %v", d)
		}
		q.interval = d
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(q *Queue) error {
		if log != nil {
			q.log = log.Named("sched")
		}
		return nil
	}
}

// New creates a queue driven by clock. A nil clock can only be drained with
// Flush.
func New(clock Clock, opts ...Option) (*Queue, error) {
	q := &Queue{
		clock:  clock,
		budget: DefaultBudget,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Schedule queues fn in the current generation. Called from inside a running
// task, fn runs right after that task's earlier nested work; otherwise it
// is appended.
func (q *Queue) Schedule(fn func()) {
	t := task{fn: fn, generation: q.generation}
	if !q.running {
		q.tasks = append(q.tasks, t)
		return
	}
	q.tasks = append(q.tasks, task{})
	copy(q.tasks[q.cursor+1:], q.tasks[q.cursor:])
	q.tasks[q.cursor] = t
	q.cursor++
}

// Generation returns the current generation.
func (q *Queue) Generation() uint64 {
	return q.generation
}

// Invalidate starts a new generation. Queued tasks of older generations are
// dropped instead of run.
func (q *Queue) Invalidate() uint64 {
	q.generation++
	return q.generation
}

// Len returns the number of queued tasks, stale ones included.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// step runs the next live task. It reports false when the queue is empty.
func (q *Queue) step() bool {
	for len(q.tasks) > 0 {
		t := q.tasks[0]
		q.tasks[0] = task{}
		q.tasks = q.tasks[1:]
		if t.generation != q.generation {
			continue
		}
		q.running, q.cursor = true, 0
		t.fn()
		q.running = false
		return true
	}
	return false
}

// Flush runs every queued task without yielding.
func (q *Queue) Flush() {
	for q.step() {
	}
}

// Run drains the queue frame by frame until it is empty or ctx is done.
// Every frame runs at least one task, then keeps going until the frame's
// budget is spent.
func (q *Queue) Run(ctx context.Context) error {
	if q.clock == nil {
		return fmt.Errorf("queue has no clock")
	}
	if q.interval == 0 {
		interval, err := Calibrate(ctx, q.clock)
		if err != nil {
			return fmt.Errorf("calibrating frame interval: %w", err)
		}
		q.interval = interval
		q.log.Debug("Frame interval calibrated", zap.Duration("interval", interval))
	}
	budget := time.Duration(float64(q.interval) * q.budget)

	frames := 0
	for len(q.tasks) > 0 {
		var frameStart time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frameStart = <-q.clock.Tick():
		}
		frames++

		deadline := frameStart.Add(budget)
		for q.step() && q.clock.Now().Before(deadline) {
		}
	}
	q.log.Debug("Queue drained", zap.Int("frames", frames))
	return nil
}
