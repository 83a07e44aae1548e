package bewegung

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/sched"
)

// Option is a functional option for configuring an Animation.
type Option func(*Animation) error

// WithConfig replaces the whole configuration. Options after it override
// single fields.
func WithConfig(cfg Config) Option {
	return func(a *Animation) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Animation) error {
		if log == nil {
			return fmt.Errorf("logger must not be nil")
		}
		a.base = log
		return nil
	}
}

// WithPlayer sets the player that runs the synthesized keyframes.
// Without a player the animation can only be prepared.
func WithPlayer(p Player) Option {
	return func(a *Animation) error {
		a.player = p
		return nil
	}
}

// WithRootPolicy sets how disjoint roots are resolved.
// Default is RootPolicyStrict.
func WithRootPolicy(p RootPolicy) Option {
	return func(a *Animation) error {
		a.cfg.RootPolicy = p.String()
		return nil
	}
}

// WithDebounce sets the quiet window after the last structural mutation.
// Default is 250ms; the minimum is 1ms.
func WithDebounce(d time.Duration) Option {
	return func(a *Animation) error {
		if d < time.Millisecond {
			return fmt.Errorf("debounce window must be at least 1ms, got %v", d)
		}
		a.cfg.Debounce = d
		return nil
	}
}

// WithFrameRate sets the rate of the default frame clock.
// Default is 60 fps. Valid range is 1-240 fps.
func WithFrameRate(fps int) Option {
	return func(a *Animation) error {
		if fps < 1 {
			return fmt.Errorf("frame rate must be at least 1 fps")
		}
		if fps > 240 {
			return fmt.Errorf("frame rate cannot exceed 240 fps")
		}
		a.cfg.FrameRate = fps
		return nil
	}
}

// WithFrameBudget sets the share of each frame spent computing.
// Default is 0.5.
func WithFrameBudget(share float64) Option {
	return func(a *Animation) error {
		if share <= 0 || share > 1 {
			return fmt.Errorf("frame budget must be in (0,1], got %v", share)
		}
		a.cfg.Budget = share
		return nil
	}
}

// WithClock replaces the default frame clock. A nil clock runs every
// computation pass to completion without yielding.
func WithClock(c Clock) Option {
	return func(a *Animation) error {
		a.clock, a.clockSet = c, true
		return nil
	}
}

// WithStructuralWatcher adds a source of structural mutations.
func WithStructuralWatcher(w StructuralWatcher) Option {
	return func(a *Animation) error {
		a.structural = append(a.structural, w)
		return nil
	}
}

// WithGeometryWatcher adds a source of geometry signals.
func WithGeometryWatcher(w GeometryWatcher) Option {
	return func(a *Animation) error {
		a.geometry = append(a.geometry, w)
		return nil
	}
}

func (a *Animation) frameClock() sched.Clock {
	if a.clockSet {
		return a.clock
	}
	a.ownClock = sched.NewTickerClock(a.cfg.FrameRate)
	return a.ownClock
}
