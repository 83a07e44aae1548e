package keyframe

import (
	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/easing"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

// Input is everything one synthesis needs.
type Input struct {
	Graph    *graph.Graph
	Timeline timeline.Timeline
	Chunks   []timeline.Normalized
	// Series are the raw readouts, one per timeline offset.
	Series map[graph.Key]diff.Series
	Diff   *diff.Result
}

// Synthesizer builds keyframe plans.
type Synthesizer struct {
	log *zap.Logger
}

// New returns a synthesizer logging to log.
func New(log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{log: log.Named("keyframe")}
}

// Synthesize builds the keyframes, synthetic layers and overrides of one
// pass. Secondary elements whose keyframes are all identity are left out.
func (s *Synthesizer) Synthesize(in Input) *Plan {
	plan := &Plan{
		Generation: in.Diff.Generation,
		Elements:   make(map[graph.Key][]Keyframe),
		Overrides:  make(map[graph.Key]map[string]string),
	}
	curves := mainCurves(in.Graph, in.Chunks, in.Timeline)

	for _, k := range in.Graph.Keys() {
		el, ok := in.Diff.Elements[k]
		if !ok {
			continue
		}
		entry := in.Graph.Entry(k)
		series := in.Series[k]
		easings := envelope(entry.AffectedBy, curves, len(el.Differences))

		if el.Image != nil {
			plan.Synthetics = append(plan.Synthetics, imageLayers(k, el.Image, easings)...)
			s.override(plan, "visibility", "hidden", k)
			s.hiddenAtEnd(in, plan, k, series)
			continue
		}

		frames := s.frames(el, series, easings)
		if !entry.Main && allIdentity(frames) {
			continue
		}
		plan.Elements[k] = frames
		s.hiddenAtEnd(in, plan, k, series)
	}

	s.log.Debug("Keyframes synthesized",
		zap.Uint64("generation", plan.Generation),
		zap.Int("elements", len(plan.Elements)),
		zap.Int("synthetics", len(plan.Synthetics)),
		zap.Int("overrides", len(plan.Overrides)))
	return plan
}

func (s *Synthesizer) frames(el *diff.Element, series diff.Series, easings []string) []Keyframe {
	radii := radiusTable(series)
	opacity := channel(series, func(r diff.Readout) string { return r.Opacity })
	filter := channel(series, func(r diff.Readout) string { return r.Filter })

	frames := make([]Keyframe, len(el.Differences))
	for i, d := range el.Differences {
		own := ""
		if i < len(series) {
			own = series[i].Transform
		}
		frames[i] = Keyframe{
			Offset:    d.Offset,
			Transform: Transform(d, own),
			Easing:    easings[i],
		}
		if radii != nil {
			frames[i].BorderRadius = &radii[i]
		}
		if opacity != nil {
			frames[i].Opacity = &opacity[i]
		}
		if filter != nil {
			frames[i].Filter = &filter[i]
		}
	}
	return frames
}

func allIdentity(frames []Keyframe) bool {
	for _, kf := range frames {
		if !isIdentityFrame(kf) {
			return false
		}
	}
	return true
}

// radiusTable returns per-offset radii as percentages of the sampled box, or
// nil when every sample has square corners.
func radiusTable(series diff.Series) []string {
	radii := make([]cssval.Radius, len(series))
	square := true
	for i, r := range series {
		parsed, err := cssval.ParseRadius(r.BorderRadius)
		if err != nil {
			continue
		}
		radii[i] = parsed
		square = square && parsed.IsZero()
	}
	if square {
		return nil
	}
	out := make([]string, len(series))
	for i, r := range series {
		out[i] = radii[i].Percentages(r.Box)
	}
	return out
}

// channel returns the per-offset values of a style channel, or nil when it
// never changes. Missing readouts take the nearest known value.
func channel(series diff.Series, get func(diff.Readout) string) []string {
	if len(series) < 2 {
		return nil
	}
	out := make([]string, len(series))
	known := make([]bool, len(series))
	for i, r := range series {
		if !r.Missing && get(r) != "" {
			out[i], known[i] = get(r), true
		}
	}
	for i := range out {
		if known[i] {
			continue
		}
		for j := range len(out) {
			if fwd := i + j; fwd < len(out) && known[fwd] {
				out[i] = out[fwd]
				break
			}
			if back := i - j; back >= 0 && known[back] {
				out[i] = out[back]
				break
			}
		}
	}
	for _, v := range out[1:] {
		if v != out[0] {
			return out
		}
	}
	return nil
}

// hiddenAtEnd takes an element that is hidden or collapsed at the last offset
// out of flow at its last visible box, relative to its parent's box at the
// same offset. A statically positioned parent becomes the containing block.
func (s *Synthesizer) hiddenAtEnd(in Input, plan *Plan, k graph.Key, series diff.Series) {
	if len(series) == 0 || series[len(series)-1].Visible() {
		return
	}
	lv := series.LastVisible()
	if lv < 0 {
		return
	}
	last := series[lv]
	box := last.Box

	if p := in.Graph.Entry(k).Parent; p != graph.NoKey {
		if ps := in.Series[p]; lv < len(ps) {
			box = box.RelativeTo(ps[lv].Box)
			if pos := ps[lv].Position; pos == "" || pos == "static" {
				s.override(plan, "position", "relative", p)
			}
		}
	}

	s.override(plan, "position", "absolute", k)
	s.override(plan, "left", format(box.Left)+"px", k)
	s.override(plan, "top", format(box.Top)+"px", k)
	s.override(plan, "width", format(box.Width)+"px", k)
	s.override(plan, "height", format(box.Height)+"px", k)
	if series[len(series)-1].Display == "none" {
		display := last.Display
		if display == "" || display == "none" {
			display = "block"
		}
		s.override(plan, "display", display, k)
	}
}

func (s *Synthesizer) override(plan *Plan, prop, value string, k graph.Key) {
	if plan.Overrides[k] == nil {
		plan.Overrides[k] = make(map[string]string)
	}
	plan.Overrides[k][prop] = value
}

func imageLayers(k graph.Key, p *diff.ImagePlan, easings []string) []Synthetic {
	wrapper := Synthetic{Kind: Wrapper, For: k, Box: p.Wrapper}
	content := Synthetic{Kind: Content, For: k, Box: layout.NewRect(0, 0, p.MaxWidth, p.MaxHeight)}
	for i, clip := range p.Clips {
		inset := Inset(clip)
		wrapper.Keyframes = append(wrapper.Keyframes, Keyframe{
			Offset:   p.Inner[i].Offset,
			Easing:   easings[i],
			ClipPath: &inset,
		})
		f := p.Inner[i]
		content.Keyframes = append(content.Keyframes, Keyframe{
			Offset:    f.Offset,
			Transform: "translate(" + format(f.X) + "px," + format(f.Y) + "px) scale(" + format(f.Scale) + ")",
			Easing:    easings[i],
		})
	}
	return []Synthetic{wrapper, content}
}

// mainCurves collects, per main and per timeline segment, the easing curve
// of every chunk that is active over the whole segment.
func mainCurves(g *graph.Graph, chunks []timeline.Normalized, tl timeline.Timeline) map[graph.Key][][]easing.Bezier {
	out := make(map[graph.Key][][]easing.Bezier)
	for _, c := range chunks {
		for i := 0; i+1 < len(tl); i++ {
			from, to := tl[i], tl[i+1]
			if from < c.Start || to > c.End {
				continue
			}
			curve, ok := segmentEasing(c.Frames, from, to)
			if !ok {
				continue
			}
			for _, t := range c.Targets {
				mk, ok := g.Key(t)
				if !ok {
					continue
				}
				if out[mk] == nil {
					out[mk] = make([][]easing.Bezier, len(tl))
				}
				out[mk][i] = append(out[mk][i], curve)
			}
		}
	}
	return out
}

// segmentEasing finds the frame whose segment covers [from, to].
func segmentEasing(frames []timeline.Frame, from, to float64) (easing.Bezier, bool) {
	for j := 0; j+1 < len(frames); j++ {
		if frames[j].Offset <= from && frames[j+1].Offset >= to {
			return frames[j].Easing, true
		}
	}
	return easing.Bezier{}, false
}

// envelope merges the curves of every affecting main per segment. The last
// keyframe, and segments no chunk is active on, are linear.
func envelope(affectedBy []graph.Key, curves map[graph.Key][][]easing.Bezier, n int) []string {
	out := make([]string, n)
	for i := range out {
		var active []easing.Bezier
		for _, m := range affectedBy {
			if segs := curves[m]; segs != nil && i < len(segs) {
				active = append(active, segs[i]...)
			}
		}
		out[i] = easing.Envelope(active...).String()
	}
	return out
}
