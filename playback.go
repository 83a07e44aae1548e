package bewegung

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type mountedLayer struct {
	el    *Element
	layer Synthetic
}

// mount applies the overrides of c and creates its native animations.
// Called with a.mu held. On failure everything mounted so far is torn down.
func (a *Animation) mount(c *computation) error {
	if a.player == nil {
		return ErrNoPlayer
	}

	var errs error
	for _, k := range slices.Sorted(maps.Keys(c.plan.Overrides)) {
		el := c.graph.Node(k)
		o := StyleOverride{Offset: 1, Properties: c.plan.Overrides[k]}
		if err := a.writer.Apply(el, o); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("override %s: %w", el, err))
			continue
		}
		a.overridden = append(a.overridden, el)
	}
	for _, s := range c.plan.Synthetics {
		el := c.graph.Node(s.For)
		h, err := a.player.Mount(el, s, c.runtime)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("mount %s layer of %s: %w", s.Kind, el, err))
			continue
		}
		a.layers = append(a.layers, mountedLayer{el: el, layer: s})
		a.handles = append(a.handles, h)
	}
	for _, k := range slices.Sorted(maps.Keys(c.plan.Elements)) {
		el := c.graph.Node(k)
		h, err := a.player.Animate(el, c.plan.Elements[k], c.runtime)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("animate %s: %w", el, err))
			continue
		}
		a.handles = append(a.handles, h)
	}

	if errs != nil {
		for _, h := range a.handles {
			h.Cancel()
		}
		return multierr.Append(errs, a.teardown())
	}
	a.playing = c
	a.log.Debug("Mounted",
		zap.Uint64("generation", c.generation),
		zap.Int("handles", len(a.handles)),
		zap.Int("layers", len(a.layers)),
		zap.Int("overrides", len(a.overridden)))
	return nil
}

// teardown unmounts the layers and restores the overridden styles. Handles
// are dropped; stopping them is up to the caller. Called with a.mu held.
func (a *Animation) teardown() error {
	var errs error
	for _, l := range a.layers {
		if err := a.player.Unmount(l.el, l.layer); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("unmount %s layer of %s: %w", l.layer.Kind, l.el, err))
		}
	}
	for _, el := range a.overridden {
		if err := a.writer.Restore(el); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("restore %s: %w", el, err))
		}
	}
	a.handles, a.layers, a.overridden, a.playing = nil, nil, nil, nil
	return errs
}

// due returns the callbacks at or before offset that have not fired yet.
func (a *Animation) due(offset float64) []Callback {
	var out []Callback
	for a.fired < len(a.callbacks) && a.callbacks[a.fired].Offset <= offset {
		out = append(out, a.callbacks[a.fired])
		a.fired++
	}
	return out
}
