package sched

import (
	"context"
	"errors"
	"time"
)

// Clock delivers repaint ticks.
type Clock interface {
	Now() time.Time
	// Tick delivers the timestamp of every repaint.
	Tick() <-chan time.Time
}

// TickerClock is a Clock backed by a time.Ticker.
type TickerClock struct {
	ticker *time.Ticker
}

// NewTickerClock returns a clock ticking fps times per second.
func NewTickerClock(fps int) *TickerClock {
	if fps <= 0 {
		fps = 60
	}
	return &TickerClock{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

// Now returns the wall clock time.
func (c *TickerClock) Now() time.Time {
	return time.Now()
}

// Tick returns the ticker channel.
func (c *TickerClock) Tick() <-chan time.Time {
	return c.ticker.C
}

// Stop stops the ticker.
func (c *TickerClock) Stop() {
	c.ticker.Stop()
}

// ErrClockStalled is returned when two ticks arrive out of order.
var ErrClockStalled = errors.New("frame clock delivered non-increasing ticks")

// Calibrate measures the repaint interval from two consecutive ticks.
func Calibrate(ctx context.Context, clock Clock) (time.Duration, error) {
	var ticks [2]time.Time
	for i := range ticks {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case ticks[i] = <-clock.Tick():
		}
	}
	interval := ticks[1].Sub(ticks[0])
	if interval <= 0 {
		return 0, ErrClockStalled
	}
	return interval, nil
}
