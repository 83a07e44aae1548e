package timeline

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/multierr"

	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/easing"
)

// Validate checks the timing options of a chunk.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Delay, validation.Min(time.Duration(0))),
		validation.Field(&o.Duration, validation.Min(time.Duration(0))),
		validation.Field(&o.EndDelay, validation.Min(time.Duration(0))),
		validation.Field(&o.Iterations, validation.Min(1.0), validation.By(wholeNumber)),
		validation.Field(&o.Direction, validation.In(DirectionNormal, DirectionReverse, DirectionAlternate, DirectionAlternateReverse)),
		validation.Field(&o.Easing, validation.By(validEasing)),
	)
}

func wholeNumber(value any) error {
	v, _ := value.(float64)
	if v != math.Trunc(v) {
		return errors.New("must be a whole number")
	}
	return nil
}

func validEasing(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := easing.Parse(s)
	return err
}

// Normalize validates every chunk and maps their keyframes onto one global
// timeline. scope is the tree selectors and root boundaries are resolved
// against; it may be nil when chunks only carry explicit targets.
//
// Malformed chunks are reported together as one *InputError. A chunk with
// infinite iterations aborts with *UnboundedIterationError.
func Normalize(chunks []Chunk, scope *dom.Node) (*Result, error) {
	for i, c := range chunks {
		if math.IsInf(c.Options.Iterations, 1) {
			return nil, &UnboundedIterationError{Chunk: i}
		}
	}

	var (
		errs    error
		total   time.Duration
		prepped = make([]prepared, 0, len(chunks))
	)
	for i, c := range chunks {
		p, err := prepare(i, c, scope)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("chunk %d: %w", i, err))
			continue
		}
		total = max(total, c.Options.runtime())
		prepped = append(prepped, p)
	}
	if errs != nil {
		return nil, &InputError{Err: errs}
	}

	res := &Result{TotalRuntime: total}
	var offsets []float64
	for _, p := range prepped {
		n := p.globalize(total)
		for _, f := range n.Frames {
			offsets = append(offsets, f.Offset)
		}
		res.Chunks = append(res.Chunks, n)
	}
	res.Timeline = NewTimeline(offsets...)
	return res, nil
}

// prepared is a validated chunk with local keyframes expanded over all
// iterations, before global remapping.
type prepared struct {
	index   int
	chunk   Chunk
	targets []*dom.Node
	roots   map[*dom.Node]*dom.Node
	frames  []Frame
}

func prepare(index int, c Chunk, scope *dom.Node) (prepared, error) {
	p := prepared{index: index, chunk: c}

	var errs error
	if err := c.Options.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}

	targets, err := resolveTargets(c, scope)
	errs = multierr.Append(errs, err)
	p.targets = targets

	roots, err := resolveRoots(targets, c.Options.RootSelector)
	errs = multierr.Append(errs, err)
	p.roots = roots

	frames, err := localFrames(c)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return p, errs
	}

	p.frames = expand(frames, c.Options.iterations(), c.Options.Direction)
	return p, nil
}

func resolveTargets(c Chunk, scope *dom.Node) ([]*dom.Node, error) {
	targets := slices.Clone(c.Targets)
	var errs error
	for _, sel := range c.Selectors {
		if scope == nil {
			errs = multierr.Append(errs, fmt.Errorf("selector %q: no tree to resolve against", sel))
			continue
		}
		found := scope.QueryAll(sel)
		if len(found) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("selector %q matches no element", sel))
			continue
		}
		targets = append(targets, found...)
	}
	targets = slices.DeleteFunc(targets, func(n *dom.Node) bool { return n == nil })
	targets = dedupe(targets)
	if len(targets) == 0 && errs == nil {
		errs = ErrNoTargets
	}
	return targets, errs
}

func dedupe(nodes []*dom.Node) []*dom.Node {
	seen := make(map[*dom.Node]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func resolveRoots(targets []*dom.Node, selector string) (map[*dom.Node]*dom.Node, error) {
	roots := make(map[*dom.Node]*dom.Node, len(targets))
	var errs error
	for _, t := range targets {
		if selector == "" {
			roots[t] = t.Root()
			continue
		}
		root := t.Closest(selector)
		if root == nil {
			errs = multierr.Append(errs, fmt.Errorf("root selector %q does not match an ancestor of %s", selector, t))
			continue
		}
		roots[t] = root
	}
	return roots, errs
}

// localFrames turns the user keyframes of one iteration into frames with
// resolved offsets and easings.
func localFrames(c Chunk) ([]Frame, error) {
	if len(c.Keyframes) > 0 && len(c.PropertyKeyframes) > 0 {
		return nil, ErrMixedKeyframes
	}
	keyframes := c.Keyframes
	if len(c.PropertyKeyframes) > 0 {
		keyframes = fromPropertyIndexed(c.PropertyKeyframes)
	}
	if len(keyframes) == 0 {
		return nil, errors.New("chunk has no keyframes")
	}

	defaultEasing, err := easing.Parse(c.Options.Easing)
	if err != nil {
		// already reported by option validation
		defaultEasing = easing.Ease
	}

	offsets, err := computeOffsets(keyframes)
	if err != nil {
		return nil, err
	}

	var errs error
	frames := make([]Frame, 0, len(keyframes)+1)
	for i, kf := range keyframes {
		curve := defaultEasing
		if kf.Easing != "" {
			if curve, err = easing.Parse(kf.Easing); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("keyframe %d: %w", i, err))
			}
		}
		frames = append(frames, Frame{
			Offset:     offsets[i],
			Easing:     curve,
			Properties: maps.Clone(kf.Properties),
		})
	}
	if errs != nil {
		return nil, errs
	}

	// A lone keyframe is the terminal state; the start is the live readout.
	if len(frames) == 1 {
		frames[0].Offset = 1
		frames = append([]Frame{{Offset: 0, Easing: frames[0].Easing, Properties: map[string]string{}}}, frames...)
	}
	return frames, nil
}

// computeOffsets fills missing offsets: the first defaults to 0, the last to
// 1, and gaps are spread evenly between explicit neighbours.
func computeOffsets(keyframes []Keyframe) ([]float64, error) {
	n := len(keyframes)
	offsets := make([]float64, n)
	known := make([]bool, n)
	for i, kf := range keyframes {
		if kf.Offset == nil {
			continue
		}
		o := *kf.Offset
		if o < 0 || o > 1 || math.IsNaN(o) {
			return nil, fmt.Errorf("keyframe %d: offset %v outside [0,1]", i, o)
		}
		offsets[i], known[i] = o, true
	}
	if n == 1 {
		if !known[0] {
			offsets[0] = 1
		}
		return offsets, nil
	}
	if !known[0] {
		offsets[0], known[0] = 0, true
	}
	if !known[n-1] {
		offsets[n-1], known[n-1] = 1, true
	}

	prev := 0
	for i := 1; i < n; i++ {
		if !known[i] {
			continue
		}
		if offsets[i] < offsets[prev] {
			return nil, fmt.Errorf("keyframe %d: offsets must not decrease", i)
		}
		gap := i - prev
		for j := prev + 1; j < i; j++ {
			offsets[j] = offsets[prev] + (offsets[i]-offsets[prev])*float64(j-prev)/float64(gap)
		}
		prev = i
	}
	return offsets, nil
}

// fromPropertyIndexed converts {prop: [v0, v1, ...]} into list keyframes.
// Each property is spaced evenly on its own; keyframes at equal offsets are
// merged.
func fromPropertyIndexed(props map[string][]string) []Keyframe {
	byOffset := map[float64]map[string]string{}
	for _, name := range slices.Sorted(maps.Keys(props)) {
		values := props[name]
		for i, v := range values {
			o := 1.0
			if len(values) > 1 {
				o = float64(i) / float64(len(values)-1)
			}
			if byOffset[o] == nil {
				byOffset[o] = map[string]string{}
			}
			byOffset[o][name] = v
		}
	}
	out := make([]Keyframe, 0, len(byOffset))
	for _, o := range slices.Sorted(maps.Keys(byOffset)) {
		offset := o
		out = append(out, Keyframe{Offset: &offset, Properties: byOffset[o]})
	}
	return out
}

// expand repeats the iteration frames, reversing where the direction asks,
// and rescales offsets onto the whole active duration. At an iteration
// boundary the end frame and the next start frame share an offset; they
// merge only when their properties are equal, the later frame winning.
func expand(frames []Frame, iterations int, dir Direction) []Frame {
	out := make([]Frame, 0, len(frames)*iterations)
	for k := 0; k < iterations; k++ {
		iter := frames
		if dir.reversed(k) {
			iter = reverseFrames(frames)
		}
		for i, f := range iter {
			f.Offset = (float64(k) + f.Offset) / float64(iterations)
			if i == 0 && len(out) > 0 {
				prev := out[len(out)-1]
				if roundOffset(prev.Offset) == roundOffset(f.Offset) && maps.Equal(prev.Properties, f.Properties) {
					out = out[:len(out)-1]
				}
			}
			out = append(out, f)
		}
	}
	return out
}

// reverseFrames mirrors offsets; a segment keeps the easing of the frame
// that started it in forward order.
func reverseFrames(frames []Frame) []Frame {
	n := len(frames)
	out := make([]Frame, n)
	for i := range frames {
		src := frames[n-1-i]
		out[i] = Frame{Offset: 1 - src.Offset, Properties: src.Properties}
		if i+1 < n {
			out[i].Easing = frames[n-2-i].Easing
		} else {
			out[i].Easing = src.Easing
		}
	}
	return out
}

// globalize remaps a prepared chunk onto the shared runtime and fills the
// delay and end delay with holds of the first and last frame.
func (p prepared) globalize(total time.Duration) Normalized {
	opts := p.chunk.Options
	toGlobal := func(local float64) float64 {
		if total <= 0 {
			return roundOffset(local)
		}
		return roundOffset((float64(opts.Delay) + float64(opts.active())*local) / float64(total))
	}

	n := Normalized{
		Index:   p.index,
		Targets: p.targets,
		Roots:   p.roots,
		Start:   toGlobal(0),
		End:     toGlobal(1),
	}
	for _, f := range p.frames {
		f.Offset = toGlobal(f.Offset)
		// a frame sharing its offset with the previous one starts one grid
		// step later, so both values get sampled
		if len(n.Frames) > 0 {
			if last := n.Frames[len(n.Frames)-1]; f.Offset <= last.Offset {
				if last.Offset >= 1 {
					n.Frames[len(n.Frames)-1] = f
					continue
				}
				f.Offset = roundOffset(last.Offset + 1/offsetScale)
			}
		}
		n.Frames = append(n.Frames, f)
	}
	if first := n.Frames[0]; first.Offset > 0 {
		hold := Frame{Offset: 0, Easing: easing.Linear, Properties: first.Properties}
		n.Frames = append([]Frame{hold}, n.Frames...)
	}
	if last := n.Frames[len(n.Frames)-1]; last.Offset < 1 {
		n.Frames[len(n.Frames)-1].Easing = easing.Linear
		n.Frames = append(n.Frames, Frame{Offset: 1, Easing: easing.Linear, Properties: last.Properties})
	}
	for _, cb := range p.chunk.Callbacks {
		n.Callbacks = append(n.Callbacks, Callback{Offset: toGlobal(cb.Offset), Fn: cb.Fn})
	}
	slices.SortStableFunc(n.Callbacks, func(a, b Callback) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	})
	return n
}
