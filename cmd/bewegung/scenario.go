package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	bewegung "github.com/copyandpaetow/bewegung-sub000"
	"github.com/copyandpaetow/bewegung-sub000/internal/config"
)

// scenario is a scripted run: a tree, the chunks animating it and the
// readouts every element reports while it is sampled.
type scenario struct {
	Name   string  `yaml:"name"`
	Tree   node    `yaml:"tree"`
	Chunks []chunk `yaml:"chunks"`
	// Readouts are keyed by element id and consumed one per read; the last
	// one repeats.
	Readouts map[string][]bewegung.Readout `yaml:"readouts"`
}

type node struct {
	ID       string   `yaml:"id"`
	Tag      string   `yaml:"tag"`
	Class    []string `yaml:"class"`
	Text     string   `yaml:"text"`
	Children []node   `yaml:"children"`
}

type chunk struct {
	Selectors  []string                 `yaml:"selectors"`
	Keyframes  []bewegung.ChunkKeyframe `yaml:"keyframes"`
	Properties map[string][]string      `yaml:"properties"`
	Options    bewegung.ChunkOptions    `yaml:"options"`
}

// Validate validates the scenario.
func (s *scenario) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Chunks, validation.Required),
		validation.Field(&s.Readouts, validation.Required),
	)
}

// Validate validates the chunk.
func (c chunk) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Selectors, validation.Required),
		validation.Field(&c.Keyframes, validation.When(len(c.Properties) == 0, validation.Required)),
	)
}

func loadScenario(path string) (*scenario, error) {
	s := &scenario{}
	if err := config.Load(path, s); err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func (n node) element() *bewegung.Element {
	opts := []bewegung.ElementOption{bewegung.WithID(n.ID)}
	if n.Tag != "" {
		opts = append(opts, bewegung.WithTag(n.Tag))
	}
	if len(n.Class) > 0 {
		opts = append(opts, bewegung.WithClass(n.Class...))
	}
	if n.Text != "" {
		opts = append(opts, bewegung.WithText(n.Text))
	}
	children := make([]*bewegung.Element, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c.element())
	}
	if len(children) > 0 {
		opts = append(opts, bewegung.WithChildren(children...))
	}
	return bewegung.NewElement(opts...)
}

func (c chunk) build() bewegung.Chunk {
	return bewegung.Chunk{
		Selectors:         c.Selectors,
		Keyframes:         c.Keyframes,
		PropertyKeyframes: c.Properties,
		Options:           c.Options,
	}
}

// script plays back recorded readouts. Style writes have no effect on it.
type script struct {
	readouts map[string][]bewegung.Readout
	reads    map[string]int
}

func newScript(readouts map[string][]bewegung.Readout) *script {
	return &script{readouts: readouts, reads: make(map[string]int)}
}

func (s *script) Read(el *bewegung.Element) (bewegung.Readout, error) {
	rs := s.readouts[el.ID()]
	if len(rs) == 0 {
		return bewegung.Readout{}, fmt.Errorf("no readouts scripted for %s", el)
	}
	i := min(s.reads[el.ID()], len(rs)-1)
	s.reads[el.ID()]++
	return rs[i], nil
}

func (s *script) Apply(*bewegung.Element, bewegung.StyleOverride) error { return nil }
func (s *script) Restore(*bewegung.Element) error                       { return nil }

// output is the printed result of one scenario.
type output struct {
	Scenario  string                         `yaml:"scenario"`
	Runtime   time.Duration                  `yaml:"runtime"`
	Timeline  []float64                      `yaml:"timeline,flow"`
	Elements  map[string][]bewegung.Keyframe `yaml:"elements,omitempty"`
	Layers    map[string][]layer             `yaml:"layers,omitempty"`
	Overrides map[string]map[string]string   `yaml:"overrides,omitempty"`
}

type layer struct {
	Kind      string              `yaml:"kind"`
	Box       bewegung.Rect       `yaml:"box,flow"`
	Keyframes []bewegung.Keyframe `yaml:"keyframes"`
}

// compute runs one computation pass over the scenario without playing it.
func compute(ctx context.Context, cfg bewegung.Config, log *zap.Logger, s *scenario) (*output, error) {
	chunks := make([]bewegung.Chunk, 0, len(s.Chunks))
	for _, c := range s.Chunks {
		chunks = append(chunks, c.build())
	}
	sc := newScript(s.Readouts)

	a, err := bewegung.New(s.Tree.element(), chunks, sc, sc,
		bewegung.WithConfig(cfg),
		bewegung.WithLogger(log.Named(s.Name)),
		bewegung.WithClock(nil))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	res, err := a.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}

	out := &output{
		Scenario:  s.Name,
		Runtime:   res.Runtime,
		Timeline:  res.Timeline,
		Elements:  make(map[string][]bewegung.Keyframe, len(res.Elements)),
		Layers:    make(map[string][]layer, len(res.Layers)),
		Overrides: make(map[string]map[string]string, len(res.Overrides)),
	}
	for el, frames := range res.Elements {
		out.Elements[el.String()] = frames
	}
	for el, layers := range res.Layers {
		for _, l := range layers {
			out.Layers[el.String()] = append(out.Layers[el.String()], layer{Kind: l.Kind.String(), Box: l.Box, Keyframes: l.Keyframes})
		}
	}
	for el, props := range res.Overrides {
		out.Overrides[el.String()] = props
	}
	return out, nil
}

// render encodes outputs as a YAML stream, one document per scenario.
func render(outputs []*output) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, o := range outputs {
		if err := enc.Encode(o); err != nil {
			return nil, fmt.Errorf("unable to encode %s: %w", o.Scenario, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
