// layout.go re-exports the value types of the computation pipeline.
// Any changes to the internal types must be mirrored here.
package bewegung

import (
	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/keyframe"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
	"github.com/copyandpaetow/bewegung-sub000/internal/sample"
	"github.com/copyandpaetow/bewegung-sub000/internal/sched"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

// Chunk is one animation request.
type Chunk = timeline.Chunk

// ChunkKeyframe is one user keyframe in list syntax.
type ChunkKeyframe = timeline.Keyframe

// ChunkOptions holds the timing of a chunk.
type ChunkOptions = timeline.Options

// Callback runs once playback crosses its offset.
type Callback = timeline.Callback

// Direction controls the playback direction of iterations.
type Direction = timeline.Direction

const (
	DirectionNormal           = timeline.DirectionNormal
	DirectionReverse          = timeline.DirectionReverse
	DirectionAlternate        = timeline.DirectionAlternate
	DirectionAlternateReverse = timeline.DirectionAlternateReverse
)

// Rect is an element box in CSS pixels.
type Rect = layout.Rect

// Readout is one geometry and style snapshot of an element.
type Readout = diff.Readout

// StyleOverride is a set of temporary style properties.
type StyleOverride = sample.Override

// Keyframe is one synthesized keyframe handed to the Player.
type Keyframe = keyframe.Keyframe

// Synthetic is a transient layer mounted in place of a fitted image.
type Synthetic = keyframe.Synthetic

// SyntheticKind distinguishes wrapper and content layers.
type SyntheticKind = keyframe.SyntheticKind

const (
	Wrapper = keyframe.Wrapper
	Content = keyframe.Content
)

// RootPolicy decides between two roots where neither contains the other.
type RootPolicy = graph.RootPolicy

const (
	RootPolicyStrict   = graph.RootPolicyStrict
	RootPolicyLastWins = graph.RootPolicyLastWins
)

// Clock delivers repaint ticks to the computation queue.
type Clock = sched.Clock
