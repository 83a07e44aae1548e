package graph

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
	"github.com/copyandpaetow/bewegung-sub000/internal/timeline"
	"github.com/copyandpaetow/bewegung-sub000/internal/traverse"
)

// Builder builds graphs over one tree and patches them after structural
// mutations.
type Builder struct {
	list   *traverse.List
	policy RootPolicy
	log    *zap.Logger

	generation uint64
	chunks     []timeline.Normalized
	last       *Graph
}

// NewBuilder returns a builder walking descendants through list.
func NewBuilder(list *traverse.List, policy RootPolicy, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{list: list, policy: policy, log: log.Named("graph")}
}

// List returns the traversal list the builder walks.
func (b *Builder) List() *traverse.List {
	return b.list
}

type mainTarget struct {
	node  *dom.Node
	root  *dom.Node
	order int
}

// Build resolves mains and secondary elements for chunks and returns a graph
// with a fresh generation.
func (b *Builder) Build(chunks []timeline.Normalized) (*Graph, error) {
	mains, err := b.collectMains(chunks)
	if err != nil {
		return nil, err
	}
	regions := make([][]*dom.Node, len(mains))
	for i, m := range mains {
		regions[i] = b.region(m.node, m.root)
	}
	g, err := b.assemble(mains, regions)
	if err != nil {
		return nil, err
	}
	b.chunks = chunks

	b.log.Debug("Dependency graph built",
		zap.Uint64("generation", g.Generation),
		zap.Int("mains", len(g.mains)),
		zap.Int("elements", g.Len()))
	return g, nil
}

// assemble creates a graph with a fresh generation from mains and the
// region each of them reaches.
func (b *Builder) assemble(mains []mainTarget, regions [][]*dom.Node) (*Graph, error) {
	b.generation++
	g := newGraph(b.generation)

	affected := make(map[Key][]Key)
	mainRef := make(map[Key]mainTarget, len(mains))
	for i, m := range mains {
		mk := g.add(m.node)
		g.entries[mk].Main = true
		g.mains = append(g.mains, mk)
		mainRef[mk] = m
		for _, n := range regions[i] {
			k := g.add(n)
			affected[k] = append(affected[k], mk)
		}
	}

	for i := range g.entries {
		e := &g.entries[i]
		if p := e.Node.Parent(); p != nil {
			if pk, ok := g.keys[p]; ok {
				e.Parent = pk
			}
		}

		by := affected[Key(i)]
		slices.Sort(by)
		e.AffectedBy = slices.Compact(by)

		candidates := make([]rootCandidate, 0, len(e.AffectedBy))
		for _, mk := range e.AffectedBy {
			m := mainRef[mk]
			candidates = append(candidates, rootCandidate{root: m.root, order: m.order})
		}
		slices.SortStableFunc(candidates, func(a, b rootCandidate) int { return cmp.Compare(a.order, b.order) })
		root, err := resolveRoot(e.Node, candidates, b.policy)
		if err != nil {
			return nil, err
		}
		if rk, ok := g.keys[root]; ok {
			e.Root = rk
		}
	}

	b.last = g
	return g, nil
}

// collectMains gathers chunk targets with their resolved root. An element
// targeted by several chunks gets the root containing all the others.
func (b *Builder) collectMains(chunks []timeline.Normalized) ([]mainTarget, error) {
	var (
		order      []*dom.Node
		candidates = make(map[*dom.Node][]rootCandidate)
	)
	for _, c := range chunks {
		for _, t := range c.Targets {
			if !b.list.Contains(t) {
				b.log.Debug("Skipping detached target", zap.Stringer("element", t))
				continue
			}
			root := c.Roots[t]
			if root == nil {
				root = b.list.Root()
			}
			if !root.Contains(t) {
				return nil, fmt.Errorf("root %s does not contain target %s", root, t)
			}
			if _, seen := candidates[t]; !seen {
				order = append(order, t)
			}
			candidates[t] = append(candidates[t], rootCandidate{root: root, order: c.Index})
		}
	}

	mains := make([]mainTarget, 0, len(order))
	for _, t := range order {
		cs := candidates[t]
		slices.SortStableFunc(cs, func(a, b rootCandidate) int { return cmp.Compare(a.order, b.order) })
		root, err := resolveRoot(t, cs, b.policy)
		if err != nil {
			return nil, err
		}
		mains = append(mains, mainTarget{node: t, root: root, order: cs[len(cs)-1].order})
	}
	return mains, nil
}

// region lists every element whose geometry depends on m: m itself, its
// descendants, the ancestor chain up to root and every child of a chain
// element.
func (b *Builder) region(m, root *dom.Node) []*dom.Node {
	out := []*dom.Node{m}
	b.list.Descendants(m, func(n *dom.Node) {
		out = append(out, n)
	})
	for _, a := range m.Ancestors(root) {
		out = append(out, a)
		out = append(out, a.Children()...)
	}
	return out
}

// Delta is the outcome of Patch.
type Delta struct {
	// From is the graph the mutations were applied to, nil before the first
	// Build.
	From *Graph
	// Graph is the patched graph. It is From itself when no mutation
	// reached it.
	Graph *Graph
	// Stale lists the keys of Graph whose readouts must be taken again.
	Stale []Key
	// Reused maps every other key of Graph to its key in From.
	Reused map[Key]Key
}

// Changed reports whether the mutations produced a new graph.
func (d Delta) Changed() bool {
	return d.Graph != d.From
}

// Settled returns the key in From of k when k and its parent link are both
// unchanged, so anything derived from k and its parent carries over.
func (d Delta) Settled(k Key) (Key, bool) {
	old, ok := d.Reused[k]
	if !ok {
		return NoKey, false
	}
	p, op := d.Graph.entries[k].Parent, d.From.entries[old].Parent
	if p == NoKey {
		return old, op == NoKey
	}
	oldParent, ok := d.Reused[p]
	return old, ok && oldParent == op
}

// Patch applies structural mutations to the traversal list and walks the
// changed region. Mains reached by a changed element, mains that appeared
// and mains that went away get their regions walked again; every other
// main keeps the region it had in the last graph. The result has one new
// generation, or is the last graph itself when nothing in it changed.
func (b *Builder) Patch(mutations []dom.Mutation, chunks []timeline.Normalized) (Delta, error) {
	for _, m := range mutations {
		b.list.Apply(m)
	}
	changed := b.list.Changed()
	from := b.last
	if from == nil {
		return Delta{}, nil
	}

	mains, err := b.collectMains(chunks)
	if err != nil {
		return Delta{}, err
	}

	touched := make(map[*dom.Node]bool)
	for _, n := range changed {
		if k, ok := from.keys[n]; ok {
			for _, mk := range from.entries[k].AffectedBy {
				touched[from.entries[mk].Node] = true
			}
		}
	}
	current := make(map[*dom.Node]bool, len(mains))
	for _, m := range mains {
		current[m.node] = true
		if k, ok := from.keys[m.node]; !ok || !from.entries[k].Main {
			touched[m.node] = true
		}
	}
	for _, mk := range from.mains {
		if n := from.entries[mk].Node; !current[n] {
			touched[n] = true
		}
	}
	b.chunks = chunks
	if len(touched) == 0 {
		b.log.Debug("Mutations outside the graph", zap.Int("changed", len(changed)))
		return Delta{From: from, Graph: from}, nil
	}

	regions := make([][]*dom.Node, len(mains))
	for i, m := range mains {
		if touched[m.node] {
			regions[i] = b.region(m.node, m.root)
			continue
		}
		regions[i] = from.region(from.keys[m.node])
	}
	g, err := b.assemble(mains, regions)
	if err != nil {
		return Delta{}, err
	}

	// A stale element is sampled with the styles of every main reaching it,
	// which in turn makes the regions of those mains stale.
	reached := func(k Key) bool {
		e := g.entries[k]
		if anyTouched(g, e.AffectedBy, touched) {
			return true
		}
		old, ok := from.keys[e.Node]
		return !ok || anyTouched(from, from.entries[old].AffectedBy, touched)
	}
	for grew := true; grew; {
		grew = false
		for k := range g.entries {
			if !reached(Key(k)) {
				continue
			}
			for _, mk := range g.entries[k].AffectedBy {
				if n := g.entries[mk].Node; !touched[n] {
					touched[n], grew = true, true
				}
			}
		}
	}

	d := Delta{From: from, Graph: g, Reused: make(map[Key]Key)}
	for k, e := range g.entries {
		if reached(Key(k)) {
			d.Stale = append(d.Stale, Key(k))
			continue
		}
		d.Reused[Key(k)] = from.keys[e.Node]
	}

	b.log.Debug("Dependency graph patched",
		zap.Uint64("generation", g.Generation),
		zap.Int("changed", len(changed)),
		zap.Int("stale", len(d.Stale)),
		zap.Int("reused", len(d.Reused)))
	return d, nil
}

func anyTouched(g *Graph, mains []Key, touched map[*dom.Node]bool) bool {
	for _, mk := range mains {
		if touched[g.entries[mk].Node] {
			return true
		}
	}
	return false
}
