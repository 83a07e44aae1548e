package sample

import (
	"maps"
	"slices"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

// Styles holds, per main element, the properties to apply at every timeline
// offset. A nil map means nothing is applied at that offset.
type Styles map[*dom.Node][]map[string]string

// ResolveStyles computes the style every main shows at every offset of tl.
// Chunks are merged in order, so a later chunk wins on shared properties.
// Between two keyframes that set a property the value is interpolated when
// both sides share a numeric shape, otherwise the earlier value holds. Before
// the first keyframe setting a property nothing is applied, leaving the live
// value in place.
func ResolveStyles(chunks []timeline.Normalized, tl timeline.Timeline) Styles {
	out := make(Styles)
	ordered := slices.Clone(chunks)
	slices.SortStableFunc(ordered, func(a, b timeline.Normalized) int { return a.Index - b.Index })

	for _, c := range ordered {
		for i, offset := range tl {
			props := chunkStyle(c.Frames, offset)
			if len(props) == 0 {
				continue
			}
			for _, t := range c.Targets {
				perOffset := out[t]
				if perOffset == nil {
					perOffset = make([]map[string]string, len(tl))
					out[t] = perOffset
				}
				if perOffset[i] == nil {
					perOffset[i] = make(map[string]string, len(props))
				}
				maps.Copy(perOffset[i], props)
			}
		}
	}
	return out
}

// chunkStyle returns every property of frames as it stands at offset.
func chunkStyle(frames []timeline.Frame, offset float64) map[string]string {
	names := map[string]bool{}
	for _, f := range frames {
		for p := range f.Properties {
			names[p] = true
		}
	}

	props := make(map[string]string, len(names))
	for p := range names {
		if v, ok := valueAt(frames, p, offset); ok {
			props[p] = v
		}
	}
	return props
}

func valueAt(frames []timeline.Frame, prop string, offset float64) (string, bool) {
	var (
		prev, next       string
		prevAt, nextAt   float64
		hasPrev, hasNext bool
	)
	for _, f := range frames {
		v, ok := f.Properties[prop]
		if !ok {
			continue
		}
		if f.Offset <= offset {
			prev, prevAt, hasPrev = v, f.Offset, true
			continue
		}
		next, nextAt, hasNext = v, f.Offset, true
		break
	}
	switch {
	case !hasPrev:
		return "", false
	case !hasNext || prevAt == offset:
		return prev, true
	}
	if v, ok := cssval.Interpolate(prev, next, (offset-prevAt)/(nextAt-prevAt)); ok {
		return v, true
	}
	return prev, true
}
