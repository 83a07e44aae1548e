package keyframe

import (
	"strings"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// Keyframe is one emitted keyframe. Optional channels are nil when the
// element does not animate them.
type Keyframe struct {
	Offset       float64 `yaml:"offset"`
	Transform    string  `yaml:"transform,omitempty"`
	Easing       string  `yaml:"easing"`
	ClipPath     *string `yaml:"clipPath,omitempty"`
	Opacity      *string `yaml:"opacity,omitempty"`
	Filter       *string `yaml:"filter,omitempty"`
	BorderRadius *string `yaml:"borderRadius,omitempty"`
}

// SyntheticKind distinguishes the layers that stand in for a fitted image.
type SyntheticKind int

const (
	// Wrapper clips to the sampled image box.
	Wrapper SyntheticKind = iota
	// Content holds the image content and counter-scales uniformly.
	Content
)

// String returns the layer name.
func (k SyntheticKind) String() string {
	if k == Content {
		return "content"
	}
	return "wrapper"
}

// Synthetic is a transient element mounted for the duration of an
// animation.
type Synthetic struct {
	Kind SyntheticKind
	// For is the image the layer stands in for.
	For graph.Key
	Box layout.Rect
	Keyframes []Keyframe
}

// Plan is the synthesizer output of one computation pass.
type Plan struct {
	Generation uint64
	Elements   map[graph.Key][]Keyframe
	Synthetics []Synthetic
	// Overrides are applied before playback and restored at cleanup.
	Overrides map[graph.Key]map[string]string
}

func format(v float64) string {
	return cssval.FormatNumber(cssval.Round(v))
}

// Transform renders a difference as translate() scale(), followed by the
// element's own transform when it has one.
func Transform(d diff.Difference, own string) string {
	var sb strings.Builder
	sb.WriteString("translate(")
	sb.WriteString(format(d.LeftDelta))
	sb.WriteString("px,")
	sb.WriteString(format(d.TopDelta))
	sb.WriteString("px) scale(")
	sb.WriteString(format(d.WidthScale))
	sb.WriteByte(',')
	sb.WriteString(format(d.HeightScale))
	sb.WriteByte(')')
	if own = strings.TrimSpace(own); own != "" && own != "none" {
		sb.WriteByte(' ')
		sb.WriteString(own)
	}
	return sb.String()
}

// Inset renders clip edges as an inset() clip-path.
func Inset(e layout.Edges) string {
	return "inset(" + format(e.Top) + "px " + format(e.Right) + "px " + format(e.Bottom) + "px " + format(e.Left) + "px)"
}

func isIdentityFrame(kf Keyframe) bool {
	return kf.Transform == "translate(0px,0px) scale(1,1)" &&
		kf.ClipPath == nil && kf.Opacity == nil && kf.Filter == nil && kf.BorderRadius == nil
}
