package diff

import (
	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// Difference is the transform that morphs the reference box into the box
// sampled at Offset.
type Difference struct {
	Offset      float64 `yaml:"offset"`
	LeftDelta   float64 `yaml:"leftDelta"`
	TopDelta    float64 `yaml:"topDelta"`
	WidthScale  float64 `yaml:"widthScale"`
	HeightScale float64 `yaml:"heightScale"`
}

// Identity returns the no-op difference at offset.
func Identity(offset float64) Difference {
	return Difference{Offset: offset, WidthScale: 1, HeightScale: 1}
}

// IsIdentity reports whether d leaves the box untouched.
func (d Difference) IsIdentity() bool {
	return d.LeftDelta == 0 && d.TopDelta == 0 && d.WidthScale == 1 && d.HeightScale == 1
}

// Element is the diff output of one element.
type Element struct {
	Key         graph.Key
	Differences []Difference
	// Visible records which offsets had a usable readout.
	Visible []bool
	// Image is set for images whose content must not stretch.
	Image *ImagePlan
}

// Result is the diff output of one computation pass.
type Result struct {
	Generation uint64
	Elements   map[graph.Key]*Element
	// Dropped lists elements that were not visible at any offset.
	Dropped []graph.Key
	// Reused counts elements carried over from an earlier result.
	Reused int
}

// Engine computes differences.
type Engine struct {
	log *zap.Logger
}

// New returns an engine logging to log.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("diff")}
}

// prepared is a substituted series with its resolved transform origins.
type prepared struct {
	series  Series
	visible []bool
	origins []layout.Point
}

// Compute diffs every element of g. series must hold one readout per
// timeline offset for every key; missing keys are treated as never visible.
func (e *Engine) Compute(g *graph.Graph, series map[graph.Key]Series) *Result {
	return e.Update(g, series, nil, nil)
}

// Update is Compute carrying elements over from prev. settled maps a key of
// g to its key in prev when neither its readouts nor those of its parent
// changed since prev was computed.
func (e *Engine) Update(g *graph.Graph, series map[graph.Key]Series, prev *Result, settled func(graph.Key) (graph.Key, bool)) *Result {
	res := &Result{Generation: g.Generation, Elements: make(map[graph.Key]*Element, g.Len())}

	prep := make(map[graph.Key]*prepared, g.Len())
	for _, k := range g.Keys() {
		s, visible, ok := substitute(series[k])
		if !ok {
			res.Dropped = append(res.Dropped, k)
			continue
		}
		prep[k] = &prepared{series: s, visible: visible, origins: e.origins(g.Node(k), s)}
	}

	for _, k := range g.Keys() {
		p, ok := prep[k]
		if !ok {
			continue
		}
		if old, ok := carried(prev, settled, k); ok {
			el := *old
			el.Key = k
			res.Elements[k] = &el
			res.Reused++
			continue
		}

		entry := g.Entry(k)
		var parent *prepared
		if entry.Parent != graph.NoKey {
			parent = prep[entry.Parent]
		}

		el := &Element{
			Key:         k,
			Differences: differences(p, parent, entry.Kind == dom.KindText),
			Visible:     p.visible,
		}
		if entry.Kind == dom.KindImage {
			el.Image = planImage(p)
		}
		res.Elements[k] = el
	}

	e.log.Debug("Differences computed",
		zap.Uint64("generation", g.Generation),
		zap.Int("elements", len(res.Elements)),
		zap.Int("reused", res.Reused),
		zap.Int("dropped", len(res.Dropped)))
	return res
}

func carried(prev *Result, settled func(graph.Key) (graph.Key, bool), k graph.Key) (*Element, bool) {
	if prev == nil || settled == nil {
		return nil, false
	}
	old, ok := settled(k)
	if !ok {
		return nil, false
	}
	el, ok := prev.Elements[old]
	return el, ok
}

// origins resolves the transform origin of every readout against its own
// box. Unparsable origins fall back to the center.
func (e *Engine) origins(n *dom.Node, s Series) []layout.Point {
	out := make([]layout.Point, len(s))
	for i, r := range s {
		origin, err := cssval.ParseOrigin(r.TransformOrigin)
		if err != nil {
			e.log.Debug("Invalid transform-origin, using center",
				zap.Stringer("element", n),
				zap.String("value", r.TransformOrigin),
				zap.Error(err))
			origin = layout.CenterOrigin
		}
		pt := origin.Resolve(r.Box)
		out[i] = layout.Point{X: safe(pt.X, r.Box.Width/2), Y: safe(pt.Y, r.Box.Height/2)}
	}
	return out
}

// differences applies the FLIP formula to every offset. A nil parent acts
// as a parent that neither moves nor scales.
func differences(el, parent *prepared, isText bool) []Difference {
	n := len(el.series)
	last := n - 1
	ref := el.series[last].Box
	refOrigin := el.origins[last]

	if parent != nil && len(parent.series) != n {
		parent = nil
	}
	parentBox := func(i int) (layout.Rect, layout.Point) {
		if parent == nil {
			return layout.Rect{}, layout.Point{}
		}
		return parent.series[i].Box, parent.origins[i]
	}
	pRef, pRefOrigin := parentBox(last)

	refLeft := ref.Left + refOrigin.X - (pRef.Left + pRefOrigin.X)
	refTop := ref.Top + refOrigin.Y - (pRef.Top + pRefOrigin.Y)

	out := make([]Difference, n)
	for i, r := range el.series {
		if i == last {
			out[i] = Identity(r.Offset)
			continue
		}
		pBox, pOrigin := parentBox(i)

		parentScaleW, parentScaleH := 1.0, 1.0
		if parent != nil {
			parentScaleW = safe(pBox.Width/pRef.Width, 1)
			parentScaleH = safe(pBox.Height/pRef.Height, 1)
		}

		childScaleW := safe(r.Box.Width/ref.Width, 1)
		childScaleH := safe(r.Box.Height/ref.Height, 1)
		if isText {
			childScaleW, childScaleH = 1, 1
		}
		if !el.visible[i] {
			childScaleW, childScaleH = 0, 0
		}

		curLeft := r.Box.Left + el.origins[i].X - (pBox.Left + pOrigin.X)
		curTop := r.Box.Top + el.origins[i].Y - (pBox.Top + pOrigin.Y)

		leftDiff := safe(curLeft/parentScaleW, 0) - refLeft
		topDiff := safe(curTop/parentScaleH, 0) - refTop
		if isText && parent != nil {
			leftDiff -= safe((pBox.Width-pRef.Width)/2/parentScaleW, 0)
			topDiff -= safe((pBox.Height-pRef.Height)/2/parentScaleH, 0)
		}

		out[i] = Difference{
			Offset:      r.Offset,
			LeftDelta:   safe(leftDiff, 0),
			TopDelta:    safe(topDiff, 0),
			WidthScale:  safe(childScaleW/parentScaleW, 1),
			HeightScale: safe(childScaleH/parentScaleH, 1),
		}
	}
	return out
}
