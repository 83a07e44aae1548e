package timeline

import (
	"math"
	"slices"
)

// offsetScale sets the grid offsets are rounded to before deduplication
// (1e-6), so 0.1+0.2 and 0.3 land on the same sample.
const offsetScale = 1e6

// Timeline is the strictly increasing set of global offsets, always
// containing 0 and 1.
type Timeline []float64

func roundOffset(v float64) float64 {
	return math.Round(v*offsetScale) / offsetScale
}

// NewTimeline builds a timeline from arbitrary offsets. Offsets are clamped
// into [0,1], rounded, sorted and deduplicated; 0 and 1 are always added.
func NewTimeline(offsets ...float64) Timeline {
	out := make([]float64, 0, len(offsets)+2)
	out = append(out, 0, 1)
	for _, o := range offsets {
		if math.IsNaN(o) {
			continue
		}
		out = append(out, roundOffset(min(max(o, 0), 1)))
	}
	slices.Sort(out)
	return Timeline(slices.Compact(out))
}

// Index returns the position of offset in the timeline, or -1.
func (t Timeline) Index(offset float64) int {
	i, found := slices.BinarySearch(t, roundOffset(offset))
	if !found {
		return -1
	}
	return i
}

// Last returns the final offset (always 1).
func (t Timeline) Last() float64 {
	return t[len(t)-1]
}
