// Package sample drives the readout protocol of a computation pass.
//
// Offsets are sampled in increasing order. At each offset every sampled main
// element first gets its keyframe style for that offset, then every sampled
// element is read. After the last offset the mains are restored. Each offset
// is one scheduler task that queues the next offset as nested work.
package sample

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/diff"
	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/graph"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
)

// Override is a set of style properties applied to an element.
type Override struct {
	Offset     float64
	Properties map[string]string
}

// Reader reads the current geometry and style of an element.
type Reader interface {
	Read(n *dom.Node) (diff.Readout, error)
}

// Writer applies and removes temporary styles.
type Writer interface {
	Apply(n *dom.Node, o Override) error
	Restore(n *dom.Node) error
}

// Scheduler queues work; see sched.Queue.
type Scheduler interface {
	Schedule(fn func())
}

// Sampler collects readouts.
type Sampler struct {
	reader Reader
	writer Writer
	queue  Scheduler
	log    *zap.Logger
}

// New creates a sampler.
func New(reader Reader, writer Writer, queue Scheduler, log *zap.Logger) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{reader: reader, writer: writer, queue: queue, log: log.Named("sample")}
}

// Done receives the readouts of a finished pass together with any restore
// errors. It is not called when the pass was invalidated.
type Done func(series map[graph.Key]diff.Series, err error)

type pass struct {
	g      *graph.Graph
	keys   []graph.Key
	mains  []graph.Key
	tl     timeline.Timeline
	styles Styles
	series map[graph.Key]diff.Series
	// lost marks elements that failed a read; they stay invisible
	lost map[graph.Key]bool
	done Done
}

// Schedule queues a sampling pass over every element of g.
func (s *Sampler) Schedule(g *graph.Graph, tl timeline.Timeline, styles Styles, done Done) {
	s.ScheduleKeys(g, g.Keys(), tl, styles, done)
}

// ScheduleKeys queues a sampling pass over keys alone. Styles go to the mains
// among keys and done receives readouts for keys only.
func (s *Sampler) ScheduleKeys(g *graph.Graph, keys []graph.Key, tl timeline.Timeline, styles Styles, done Done) {
	p := &pass{
		g:      g,
		keys:   keys,
		tl:     tl,
		styles: styles,
		series: make(map[graph.Key]diff.Series, len(keys)),
		lost:   make(map[graph.Key]bool),
		done:   done,
	}
	for _, k := range keys {
		if g.Entry(k).Main {
			p.mains = append(p.mains, k)
		}
		p.series[k] = make(diff.Series, 0, len(tl))
	}
	s.queue.Schedule(func() { s.step(p, 0) })
}

func (s *Sampler) step(p *pass, i int) {
	offset := p.tl[i]

	for _, mk := range p.mains {
		n := p.g.Node(mk)
		perOffset := p.styles[n]
		if p.lost[mk] || perOffset == nil || perOffset[i] == nil {
			continue
		}
		if err := s.writer.Apply(n, Override{Offset: offset, Properties: perOffset[i]}); err != nil {
			s.log.Debug("Applying keyframe style failed", zap.Stringer("element", n), zap.Float64("offset", offset), zap.Error(err))
			p.lost[mk] = true
		}
	}

	for _, k := range p.keys {
		r := diff.Readout{Offset: offset, Missing: true}
		if !p.lost[k] {
			read, err := s.reader.Read(p.g.Node(k))
			if err != nil {
				s.log.Debug("Readout failed, element treated as gone", zap.Stringer("element", p.g.Node(k)), zap.Float64("offset", offset), zap.Error(err))
				p.lost[k] = true
			} else {
				r = read
				r.Offset = offset
			}
		}
		p.series[k] = append(p.series[k], r)
	}

	if i+1 < len(p.tl) {
		s.queue.Schedule(func() { s.step(p, i+1) })
		return
	}

	p.done(p.series, s.restore(p.g, p.mains))
}

// Restore removes the sampling styles from every main of g.
func (s *Sampler) Restore(g *graph.Graph) error {
	return s.restore(g, g.Mains())
}

func (s *Sampler) restore(g *graph.Graph, mains []graph.Key) error {
	var errs error
	for _, mk := range mains {
		errs = multierr.Append(errs, s.writer.Restore(g.Node(mk)))
	}
	return errs
}
