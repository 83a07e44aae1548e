package diff

import (
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// Readout is one geometry and style snapshot of an element.
type Readout struct {
	Offset float64     `yaml:"offset"`
	Box    layout.Rect `yaml:"box"`

	Display         string `yaml:"display,omitempty"`
	Position        string `yaml:"position,omitempty"`
	Opacity         string `yaml:"opacity,omitempty"`
	Filter          string `yaml:"filter,omitempty"`
	Transform       string `yaml:"transform,omitempty"`
	TransformOrigin string `yaml:"transformOrigin,omitempty"`
	BorderRadius    string `yaml:"borderRadius,omitempty"`
	ObjectFit       string `yaml:"objectFit,omitempty"`
	ObjectPosition  string `yaml:"objectPosition,omitempty"`

	// Missing is set when the element could not be read at this offset.
	Missing bool `yaml:"missing,omitempty"`
}

// Visible reports whether the readout can serve as a scale reference.
func (r Readout) Visible() bool {
	return !r.Missing && r.Display != "none" && !r.Box.IsEmpty() && r.Box.IsFinite()
}

// Series holds one readout per timeline offset, sorted by offset.
type Series []Readout

// LastVisible returns the index of the last visible readout, or -1.
func (s Series) LastVisible() int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Visible() {
			return i
		}
	}
	return -1
}

// substitute replaces readouts that are not visible with the nearest visible
// neighbour, searching forward first. The offset of the replaced entry is
// kept. ok is false when nothing in s is visible.
func substitute(s Series) (out Series, visible []bool, ok bool) {
	out = make(Series, len(s))
	visible = make([]bool, len(s))
	for i, r := range s {
		visible[i] = r.Visible()
		ok = ok || visible[i]
	}
	if !ok {
		return nil, visible, false
	}
	for i, r := range s {
		if visible[i] {
			out[i] = r
			continue
		}
		j := nearestVisible(visible, i)
		out[i] = s[j]
		out[i].Offset = r.Offset
	}
	return out, visible, true
}

func nearestVisible(visible []bool, i int) int {
	for j := i + 1; j < len(visible); j++ {
		if visible[j] {
			return j
		}
	}
	for j := i - 1; j >= 0; j-- {
		if visible[j] {
			return j
		}
	}
	return -1
}
