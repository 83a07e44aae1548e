package timeline

import (
	"time"

	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/easing"
)

// Direction controls the playback direction of iterations.
type Direction string

const (
	DirectionNormal           Direction = "normal"
	DirectionReverse          Direction = "reverse"
	DirectionAlternate        Direction = "alternate"
	DirectionAlternateReverse Direction = "alternate-reverse"
)

// reversed reports whether iteration k (0-based) plays backwards.
func (d Direction) reversed(k int) bool {
	switch d {
	case DirectionReverse:
		return true
	case DirectionAlternate:
		return k%2 == 1
	case DirectionAlternateReverse:
		return k%2 == 0
	default:
		return false
	}
}

// Options holds the timing of one chunk.
type Options struct {
	Delay    time.Duration `yaml:"delay"`
	Duration time.Duration `yaml:"duration"`
	EndDelay time.Duration `yaml:"endDelay"`
	// Iterations must be a whole number; 0 means 1.
	Iterations float64   `yaml:"iterations"`
	Direction  Direction `yaml:"direction"`
	// Easing is the default timing function for every keyframe segment.
	Easing string `yaml:"easing"`
	// RootSelector bounds the region affected by the chunk's targets. The
	// closest ancestor-or-self of each target matching it becomes the root.
	RootSelector string `yaml:"rootSelector"`
}

func (o Options) iterations() int {
	if o.Iterations <= 0 {
		return 1
	}
	return int(o.Iterations)
}

// runtime is delay + active duration + end delay.
func (o Options) runtime() time.Duration {
	return o.Delay + o.active() + o.EndDelay
}

func (o Options) active() time.Duration {
	return o.Duration * time.Duration(o.iterations())
}

// Keyframe is one user keyframe in list syntax.
type Keyframe struct {
	// Offset within one iteration in [0,1]; nil offsets are spaced evenly
	// between their explicit neighbours.
	Offset *float64 `yaml:"offset"`
	// Easing for the segment starting at this keyframe; "" uses Options.Easing.
	Easing     string            `yaml:"easing"`
	Properties map[string]string `yaml:"properties"`
}

// Callback runs once playback crosses Offset (chunk-local in a Chunk, global
// after normalization).
type Callback struct {
	Offset float64
	Fn     func()
}

// Chunk is one animation request.
type Chunk struct {
	Targets []*dom.Node
	// Selectors are resolved against the tree root and added to Targets.
	Selectors []string
	Keyframes []Keyframe
	// PropertyKeyframes is the property-indexed syntax: every property lists
	// its values, spaced evenly over the iteration. It cannot be combined
	// with Keyframes.
	PropertyKeyframes map[string][]string
	Options           Options
	Callbacks         []Callback
}

// Frame is one keyframe expressed on the global timeline.
type Frame struct {
	Offset float64
	// Easing applies to the segment from this frame to the next one.
	Easing     easing.Bezier
	Properties map[string]string
}

// Normalized is a chunk re-expressed in global offsets.
type Normalized struct {
	// Index is the registration order of the chunk.
	Index   int
	Targets []*dom.Node
	// Roots holds the resolved root boundary per target.
	Roots map[*dom.Node]*dom.Node
	Frames  []Frame
	// Start and End bound the active interval (after delay, before end delay).
	Start, End float64
	Callbacks  []Callback
}

// Result is the output of Normalize.
type Result struct {
	Timeline     Timeline
	Chunks       []Normalized
	TotalRuntime time.Duration
}
