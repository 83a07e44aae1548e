package graph

import (
	"slices"

	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
)

// Key identifies an element within one graph generation.
type Key int

// NoKey marks a missing parent or root.
const NoKey Key = -1

// Entry is the per-element state of the graph.
type Entry struct {
	Node *dom.Node
	Main bool
	Kind dom.Kind
	// Parent is the structural parent, or NoKey when the parent is outside
	// the graph.
	Parent Key
	// Root is the boundary of the region this element is animated in.
	Root Key
	// AffectedBy lists the mains whose change reaches this element, in key
	// order. A main lists itself.
	AffectedBy []Key
}

// Graph is the arena of every element involved in one computation pass.
type Graph struct {
	Generation uint64

	entries []Entry
	keys    map[*dom.Node]Key
	mains   []Key
}

func newGraph(generation uint64) *Graph {
	return &Graph{Generation: generation, keys: make(map[*dom.Node]Key)}
}

// add returns the key of n, creating an entry on first sight.
func (g *Graph) add(n *dom.Node) Key {
	if k, ok := g.keys[n]; ok {
		return k
	}
	k := Key(len(g.entries))
	g.entries = append(g.entries, Entry{Node: n, Kind: n.Kind(), Parent: NoKey, Root: NoKey})
	g.keys[n] = k
	return k
}

// Len returns the number of elements.
func (g *Graph) Len() int {
	return len(g.entries)
}

// Key looks up the key of n.
func (g *Graph) Key(n *dom.Node) (Key, bool) {
	k, ok := g.keys[n]
	return k, ok
}

// Entry returns the entry for k. It panics on keys from another generation
// that are out of range.
func (g *Graph) Entry(k Key) *Entry {
	return &g.entries[k]
}

// Node returns the element of k, or nil for NoKey.
func (g *Graph) Node(k Key) *dom.Node {
	if k == NoKey {
		return nil
	}
	return g.entries[k].Node
}

// Keys returns every key in creation order.
func (g *Graph) Keys() []Key {
	out := make([]Key, len(g.entries))
	for i := range out {
		out[i] = Key(i)
	}
	return out
}

// Mains returns the keys of all main elements.
func (g *Graph) Mains() []Key {
	return slices.Clone(g.mains)
}

// Secondary returns the keys of all non-main elements.
func (g *Graph) Secondary() []Key {
	var out []Key
	for k, e := range g.entries {
		if !e.Main {
			out = append(out, Key(k))
		}
	}
	return out
}

// IsAffectedBy reports whether main m reaches k.
func (g *Graph) IsAffectedBy(k, m Key) bool {
	_, found := slices.BinarySearch(g.entries[k].AffectedBy, m)
	return found
}

// region returns the elements main m reaches, in key order.
func (g *Graph) region(m Key) []*dom.Node {
	var out []*dom.Node
	for k := range g.entries {
		if g.IsAffectedBy(Key(k), m) {
			out = append(out, g.entries[k].Node)
		}
	}
	return out
}
