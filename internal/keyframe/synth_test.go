package keyframe

import (
	"maps"
	"testing"
	"time"

	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/easing"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
	"github.com/copyandpaetow/bewegung-sub000/internal/traverse"
)

type pipeline struct {
	g      *graph.Graph
	tl     timeline.Timeline
	chunks []timeline.Normalized
	plan   *Plan
}

func (p pipeline) key(t *testing.T, n *dom.Node) graph.Key {
	t.Helper()
	k, ok := p.g.Key(n)
	if !ok {
		t.Fatalf("%s not in graph", n)
	}
	return k
}

// run normalizes chunks, builds the graph and synthesizes with readouts
// scripted per node (nodes without readouts are never visible).
func run(t *testing.T, root *dom.Node, chunks []timeline.Chunk, readouts map[*dom.Node]diff.Series) pipeline {
	t.Helper()
	norm, err := timeline.Normalize(chunks, root)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	g, err := graph.NewBuilder(traverse.New(root), graph.RootPolicyStrict, nil).Build(norm.Chunks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	series := map[graph.Key]diff.Series{}
	for n, s := range readouts {
		if k, ok := g.Key(n); ok {
			series[k] = s
		}
	}
	res := diff.New(nil).Compute(g, series)
	plan := New(nil).Synthesize(Input{Graph: g, Timeline: norm.Timeline, Chunks: norm.Chunks, Series: series, Diff: res})
	return pipeline{g: g, tl: norm.Timeline, chunks: norm.Chunks, plan: plan}
}

func at(boxes ...layout.Rect) diff.Series {
	s := make(diff.Series, len(boxes))
	for i, b := range boxes {
		s[i] = diff.Readout{Offset: float64(i) / float64(len(boxes)-1), Box: b}
	}
	return s
}

func moveChunk(target *dom.Node, opts timeline.Options) timeline.Chunk {
	return timeline.Chunk{
		Targets: []*dom.Node{target},
		Keyframes: []timeline.Keyframe{
			{Properties: map[string]string{"left": "0px"}},
			{Properties: map[string]string{"left": "50px"}},
		},
		Options: opts,
	}
}

func TestSynthesize_TranslateScenario(t *testing.T) {
	child := dom.New(dom.WithID("child"))
	parent := dom.New(dom.WithID("parent"), dom.WithChildren(child))

	p := run(t, parent, []timeline.Chunk{moveChunk(child, timeline.Options{Duration: time.Second})}, map[*dom.Node]diff.Series{
		child:  at(layout.NewRect(0, 0, 100, 100), layout.NewRect(50, 0, 100, 100)),
		parent: at(layout.NewRect(0, 0, 400, 400), layout.NewRect(0, 0, 400, 400)),
	})

	frames := p.plan.Elements[p.key(t, child)]
	if len(frames) != 2 {
		t.Fatalf("keyframes = %d, want 2", len(frames))
	}
	want := []Keyframe{
		{Offset: 0, Transform: "translate(-50px,0px) scale(1,1)", Easing: "ease"},
		{Offset: 1, Transform: "translate(0px,0px) scale(1,1)", Easing: "linear"},
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Errorf("keyframe %d = %+v, want %+v", i, frames[i], want[i])
		}
	}
	if _, ok := p.plan.Elements[p.key(t, parent)]; ok {
		t.Error("static secondary parent should not get keyframes")
	}
	if len(p.plan.Overrides) != 0 {
		t.Errorf("Overrides = %v, want none", p.plan.Overrides)
	}
}

func TestSynthesize_DisplayNoneOverride(t *testing.T) {
	child := dom.New(dom.WithID("child"))
	parent := dom.New(dom.WithID("parent"), dom.WithChildren(child))

	childSeries := at(layout.NewRect(30, 40, 100, 50), layout.NewRect(30, 40, 100, 50))
	childSeries[0].Display = "flex"
	childSeries[1].Display = "none"
	parentSeries := at(layout.NewRect(10, 10, 400, 400), layout.NewRect(10, 10, 400, 300))

	p := run(t, parent, []timeline.Chunk{moveChunk(child, timeline.Options{Duration: time.Second})}, map[*dom.Node]diff.Series{
		child:  childSeries,
		parent: parentSeries,
	})

	want := map[string]string{
		"position": "absolute",
		"left":     "20px",
		"top":      "30px",
		"width":    "100px",
		"height":   "50px",
		"display":  "flex",
	}
	if got := p.plan.Overrides[p.key(t, child)]; !maps.Equal(got, want) {
		t.Errorf("child override = %v, want %v", got, want)
	}
	if got := p.plan.Overrides[p.key(t, parent)]; !maps.Equal(got, map[string]string{"position": "relative"}) {
		t.Errorf("parent override = %v, want position: relative", got)
	}
}

func TestSynthesize_PositionedParentKeepsPosition(t *testing.T) {
	child := dom.New(dom.WithID("child"))
	parent := dom.New(dom.WithID("parent"), dom.WithChildren(child))

	childSeries := at(layout.NewRect(0, 0, 100, 50), layout.NewRect(0, 0, 0, 0))
	parentSeries := at(layout.NewRect(0, 0, 400, 400), layout.NewRect(0, 0, 400, 400))
	for i := range parentSeries {
		parentSeries[i].Position = "absolute"
	}

	p := run(t, parent, []timeline.Chunk{moveChunk(child, timeline.Options{Duration: time.Second})}, map[*dom.Node]diff.Series{
		child:  childSeries,
		parent: parentSeries,
	})
	if _, ok := p.plan.Overrides[p.key(t, parent)]; ok {
		t.Error("positioned parent should not be overridden")
	}
	got := p.plan.Overrides[p.key(t, child)]
	if got["position"] != "absolute" || got["display"] != "" {
		t.Errorf("collapsed child override = %v, want absolute without display", got)
	}
}

func TestSynthesize_StyleChannels(t *testing.T) {
	child := dom.New(dom.WithID("child"))
	parent := dom.New(dom.WithID("parent"), dom.WithChildren(child))

	childSeries := at(layout.NewRect(0, 0, 100, 50), layout.NewRect(0, 0, 100, 50))
	for i := range childSeries {
		childSeries[i].Filter = "blur(2px)"
		childSeries[i].BorderRadius = "10px"
		childSeries[i].Transform = "rotate(45deg)"
	}
	childSeries[0].Opacity = "0"
	childSeries[1].Opacity = "1"

	p := run(t, parent, []timeline.Chunk{moveChunk(child, timeline.Options{Duration: time.Second})}, map[*dom.Node]diff.Series{
		child:  childSeries,
		parent: at(layout.NewRect(0, 0, 400, 400), layout.NewRect(0, 0, 400, 400)),
	})

	frames := p.plan.Elements[p.key(t, child)]
	if frames[0].Filter != nil {
		t.Errorf("constant filter should be omitted, got %q", *frames[0].Filter)
	}
	if frames[0].Opacity == nil || *frames[0].Opacity != "0" || *frames[1].Opacity != "1" {
		t.Error("varying opacity should be present on every keyframe")
	}
	if frames[0].BorderRadius == nil || *frames[0].BorderRadius != "10% 10% 10% 10% / 20% 20% 20% 20%" {
		t.Errorf("BorderRadius = %v, want percentages of the box", frames[0].BorderRadius)
	}
	if got := frames[1].Transform; got != "translate(0px,0px) scale(1,1) rotate(45deg)" {
		t.Errorf("Transform = %q, want own transform appended", got)
	}
}

func TestSynthesize_EasingEnvelope(t *testing.T) {
	// root > x > a, root > y > b: a and b do not reach each other
	a := dom.New(dom.WithID("a"))
	b := dom.New(dom.WithID("b"))
	root := dom.New(dom.WithID("root"), dom.WithChildren(
		dom.New(dom.WithID("x"), dom.WithChildren(a)),
		dom.New(dom.WithID("y"), dom.WithChildren(b)),
	))

	p := run(t, root, []timeline.Chunk{
		moveChunk(a, timeline.Options{Duration: time.Second, Easing: "ease"}),
		moveChunk(a, timeline.Options{Duration: time.Second, Easing: "ease-out"}),
		moveChunk(b, timeline.Options{Delay: time.Second, Duration: time.Second, Easing: "ease-in"}),
	}, map[*dom.Node]diff.Series{
		a: at(layout.NewRect(0, 0, 10, 10), layout.NewRect(5, 0, 10, 10), layout.NewRect(10, 0, 10, 10)),
		b: at(layout.NewRect(0, 20, 10, 10), layout.NewRect(0, 20, 10, 10), layout.NewRect(0, 30, 10, 10)),
	})

	merged := easing.Envelope(easing.Ease, easing.EaseOut).String()
	if merged != "cubic-bezier(0.25,0.1,0.58,1)" {
		t.Errorf("envelope = %q, want component-wise maximum", merged)
	}

	curves := mainCurves(p.g, p.chunks, p.tl)
	type tc struct {
		node *dom.Node
		want []string
	}

	tests := map[string]tc{
		// a is active on the first half only, b on the second
		"a": {node: a, want: []string{merged, "linear", "linear"}},
		"b": {node: b, want: []string{"linear", "ease-in", "linear"}},
		// root is reached by both mains
		"root": {node: root, want: []string{merged, "ease-in", "linear"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := envelope(p.g.Entry(p.key(t, tt.node)).AffectedBy, curves, len(p.tl))
			for i, want := range tt.want {
				if got[i] != want {
					t.Errorf("segment %d easing = %q, want %q", i, got[i], want)
				}
			}
		})
	}

	frames := p.plan.Elements[p.key(t, a)]
	if len(frames) != 3 || frames[0].Easing != merged {
		t.Errorf("keyframes of a = %+v, want merged easing first", frames)
	}
}

func TestSynthesize_ImageLayers(t *testing.T) {
	img := dom.New(dom.WithID("img"), dom.WithTag("img"))
	parent := dom.New(dom.WithID("parent"), dom.WithChildren(img))

	series := at(layout.NewRect(0, 0, 100, 50), layout.NewRect(0, 0, 200, 200))
	for i := range series {
		series[i].ObjectFit = "cover"
	}
	p := run(t, parent, []timeline.Chunk{moveChunk(img, timeline.Options{Duration: time.Second})}, map[*dom.Node]diff.Series{
		img:    series,
		parent: at(layout.NewRect(0, 0, 400, 400), layout.NewRect(0, 0, 400, 400)),
	})

	if len(p.plan.Synthetics) != 2 {
		t.Fatalf("Synthetics = %d, want wrapper and content", len(p.plan.Synthetics))
	}
	wrapper, content := p.plan.Synthetics[0], p.plan.Synthetics[1]
	if wrapper.Kind != Wrapper || content.Kind != Content {
		t.Fatalf("kinds = %v, %v", wrapper.Kind, content.Kind)
	}
	if got := *wrapper.Keyframes[0].ClipPath; got != "inset(0px 100px 150px 0px)" {
		t.Errorf("wrapper clip = %q", got)
	}
	if got := content.Keyframes[0].Transform; got != "translate(0px,-25px) scale(0.5)" {
		t.Errorf("content transform = %q", got)
	}
	if content.Box != layout.NewRect(0, 0, 200, 200) {
		t.Errorf("content box = %+v", content.Box)
	}
	if got := p.plan.Overrides[p.key(t, img)]["visibility"]; got != "hidden" {
		t.Errorf("image visibility override = %q, want hidden", got)
	}
	if _, ok := p.plan.Elements[p.key(t, img)]; ok {
		t.Error("fitted image should be animated through its layers only")
	}
}

func TestTransform(t *testing.T) {
	type tc struct {
		d    diff.Difference
		own  string
		want string
	}

	tests := map[string]tc{
		"identity":      {d: diff.Identity(1), want: "translate(0px,0px) scale(1,1)"},
		"rounded":       {d: diff.Difference{LeftDelta: 1.000049, TopDelta: -2.5, WidthScale: 1.0 / 3, HeightScale: 2}, want: "translate(1px,-2.5px) scale(0.3333,2)"},
		"own none":      {d: diff.Identity(0), own: "none", want: "translate(0px,0px) scale(1,1)"},
		"own transform": {d: diff.Identity(0), own: "scale(2)", want: "translate(0px,0px) scale(1,1) scale(2)"},
		"negative zero": {d: diff.Difference{LeftDelta: -0.00001, WidthScale: 1, HeightScale: 1}, want: "translate(0px,0px) scale(1,1)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Transform(tt.d, tt.own); got != tt.want {
				t.Errorf("Transform() = %q, want %q", got, tt.want)
			}
		})
	}
}
