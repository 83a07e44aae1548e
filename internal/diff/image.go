package diff

import (
	"strings"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// ImagePlan describes the two synthetic layers that replace a fitted image
// while it animates: a wrapper covering every sampled box that clips to the
// sampled box, and the image content sized to the largest box and scaled
// uniformly inside it.
type ImagePlan struct {
	Fit string
	// Wrapper is the union of all sampled boxes.
	Wrapper layout.Rect
	// MaxWidth and MaxHeight size the inner image.
	MaxWidth, MaxHeight float64
	// Clips holds the wrapper inset per offset.
	Clips []layout.Edges
	// Inner holds the inner image placement per offset, relative to the
	// wrapper's top-left corner.
	Inner []ImageFrame
}

// ImageFrame is the inner image transform at one offset.
type ImageFrame struct {
	Offset float64
	X, Y   float64
	Scale  float64
}

// fitScale returns the uniform scale of content sized w×h (the max box)
// shown in a box bw×bh.
func fitScale(fit string, bw, bh, w, h float64) float64 {
	rw, rh := safe(bw/w, 1), safe(bh/h, 1)
	switch fit {
	case "cover":
		return max(rw, rh)
	case "contain":
		return min(rw, rh)
	case "scale-down":
		return min(1, min(rw, rh))
	default: // none
		return 1
	}
}

// planImage returns nil for images that simply stretch with their box.
func planImage(p *prepared) *ImagePlan {
	last := p.series[len(p.series)-1]
	fit := strings.ToLower(strings.TrimSpace(last.ObjectFit))
	switch fit {
	case "cover", "contain", "none", "scale-down":
	default:
		return nil
	}

	plan := &ImagePlan{Fit: fit}
	for _, r := range p.series {
		plan.Wrapper = plan.Wrapper.Union(r.Box)
		plan.MaxWidth = max(plan.MaxWidth, r.Box.Width)
		plan.MaxHeight = max(plan.MaxHeight, r.Box.Height)
	}

	for i, r := range p.series {
		box := r.Box
		scale := fitScale(fit, box.Width, box.Height, plan.MaxWidth, plan.MaxHeight)
		if !p.visible[i] {
			c := box.Center()
			box = layout.Rect{Left: c.X, Top: c.Y}
			scale = 0
		}
		plan.Clips = append(plan.Clips, plan.Wrapper.Inset(box))

		pos, err := cssval.ParseOrigin(r.ObjectPosition)
		if err != nil {
			pos = layout.CenterOrigin
		}
		// percentages place the scaled max-box content inside the sampled
		// box the way object-position does: 0% aligns the near edges, 100%
		// the far ones, so they resolve against the space left over
		freeX := box.Width - scale*plan.MaxWidth
		freeY := box.Height - scale*plan.MaxHeight
		plan.Inner = append(plan.Inner, ImageFrame{
			Offset: r.Offset,
			X:      safe(box.Left-plan.Wrapper.Left+pos.X.Resolve(freeX), 0),
			Y:      safe(box.Top-plan.Wrapper.Top+pos.Y.Resolve(freeY), 0),
			Scale:  safe(scale, 1),
		})
	}
	return plan
}
