package traverse

import (
	"github.com/copyandpaetow/bewegung-sub000/internal/dom"
)

type cell struct {
	node *dom.Node

	// next is the following element in document order (nextIfChanged),
	// skip the first element after this subtree (nextIfUnchanged).
	next, skip *cell
	// prev mirrors next; up is the parent cell.
	prev, up *cell
	depth    int

	dirty      bool
	childDirty bool
	dead       bool
}

// List is the traversal list for one tree.
type List struct {
	root  *cell
	cells map[*dom.Node]*cell

	// subtrees whose skip pointers still mirror next
	pending []*cell
	// lowest cell containing every change since the last walk
	top *cell
}

// New builds the list for the tree rooted at root.
func New(root *dom.Node) *List {
	l := &List{cells: make(map[*dom.Node]*cell)}
	first, last := l.chain(root, nil)
	last.next, first.prev = first, last
	mirror(first, first)
	l.root = first
	l.pending = append(l.pending, first)
	return l
}

// chain creates cells for n's subtree linked through next in document order.
// The tail's next is left for the caller.
func (l *List) chain(n *dom.Node, up *cell) (first, last *cell) {
	c := &cell{node: n, up: up}
	if up != nil {
		c.depth = up.depth + 1
	}
	l.cells[n] = c
	first, last = c, c
	for _, child := range n.Children() {
		cf, cl := l.chain(child, c)
		last.next, cf.prev = cf, last
		last = cl
	}
	return first, last
}

// mirror points skip at next for every cell from first up to end.
func mirror(first, end *cell) {
	for x := first; ; x = x.next {
		x.skip = x.next
		if x.next == end {
			return
		}
	}
}

// settle replaces the provisional skip pointers of fresh subtrees with the
// first cell past each subtree.
func (l *List) settle() {
	for _, s := range l.pending {
		if s.dead {
			continue
		}
		stack := []*cell{s}
		for x := s.next; ; x = x.next {
			for len(stack) > 0 && x.up != stack[len(stack)-1] {
				stack[len(stack)-1].skip = x
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				break
			}
			stack = append(stack, x)
		}
	}
	l.pending = l.pending[:0]
}

// Contains reports whether n has a cell in the list.
func (l *List) Contains(n *dom.Node) bool {
	_, ok := l.cells[n]
	return ok
}

// Len returns the number of elements in the list.
func (l *List) Len() int {
	return len(l.cells)
}

// Root returns the root element.
func (l *List) Root() *dom.Node {
	return l.root.node
}

// Nodes returns every element in list order.
func (l *List) Nodes() []*dom.Node {
	out := make([]*dom.Node, 0, len(l.cells))
	for x := l.root; ; {
		out = append(out, x.node)
		x = x.next
		if x == l.root {
			return out
		}
	}
}

// Descendants calls fn for every element inside n's subtree, excluding n,
// in document order. It does nothing if n is not in the list.
func (l *List) Descendants(n *dom.Node, fn func(*dom.Node)) {
	c := l.cells[n]
	if c == nil {
		return
	}
	l.settle()
	for x := c.next; x != c.skip && x != l.root; x = x.next {
		fn(x.node)
	}
}

// Apply splices one structural mutation into the list. Mutations must be
// applied in the order they happened. It reports whether the list changed.
func (l *List) Apply(m dom.Mutation) bool {
	switch m.Kind {
	case dom.Added:
		return l.Insert(m.Node)
	case dom.Removed:
		c := l.cells[m.Node]
		if c == nil || c.up == nil || c.up.node != m.Parent {
			// stale: the node has since been relinked elsewhere
			return false
		}
		return l.Remove(m.Node)
	}
	return false
}

// Insert links n's subtree at its current tree position. n's parent must
// already be in the list.
func (l *List) Insert(n *dom.Node) bool {
	if l.Contains(n) {
		return false
	}
	parent := n.Parent()
	if parent == nil || n.Root() != l.root.node {
		return false
	}
	p := l.cells[parent]
	if p == nil {
		return false
	}

	l.settle()
	// Descendants moved in from elsewhere lose their old position first.
	n.Walk(func(d *dom.Node) bool {
		if c := l.cells[d]; c != nil {
			l.detach(c)
			return false
		}
		return true
	})
	if l.cells[parent] != p {
		return false
	}

	pred := p
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		if sc := l.cells[s]; sc != nil {
			pred = sc.skip.prev
			break
		}
	}
	succ := pred.next

	first, last := l.chain(n, p)
	pred.next, first.prev = first, pred
	last.next, succ.prev = succ, last
	mirror(first, succ)

	// Subtrees that used to end right before succ now end before first.
	for x := pred; x != nil && x != p && x.skip == succ; x = x.up {
		x.skip = first
	}
	l.pending = append(l.pending, first)

	for x := first; x != succ; x = x.next {
		x.dirty = true
	}
	l.mark(first)
	l.mark(p)
	return true
}

// Remove unlinks n's subtree. The removed cells form a closed loop and are
// never reached by later walks.
func (l *List) Remove(n *dom.Node) bool {
	c := l.cells[n]
	if c == nil || c == l.root {
		return false
	}
	l.settle()
	l.detach(c)
	return true
}

func (l *List) detach(c *cell) {
	last := c.skip.prev
	before, after := c.prev, c.skip
	before.next, after.prev = after, before
	for x := before; x != nil && x.skip == c; x = x.up {
		x.skip = after
	}

	last.next, c.prev = c, last
	for x := c; ; x = x.next {
		delete(l.cells, x.node)
		x.dead = true
		if x == last {
			break
		}
	}

	up := c.up
	c.skip, c.up = c, nil
	if l.top != nil && l.top.dead {
		l.top = nil
	}
	l.mark(up)
}

// Mark flags n as changed without a structural splice, e.g. after an
// attribute change.
func (l *List) Mark(n *dom.Node) {
	if c := l.cells[n]; c != nil {
		l.mark(c)
	}
}

// IsChanged reports whether n is flagged as changed.
func (l *List) IsChanged(n *dom.Node) bool {
	c := l.cells[n]
	return c != nil && c.dirty
}

func (l *List) mark(c *cell) {
	c.dirty = true
	for a := c.up; a != nil && !a.childDirty; a = a.up {
		a.childDirty = true
	}
	if l.top == nil {
		l.top = c
		return
	}
	l.top = commonAncestor(l.top, c)
}

func commonAncestor(a, b *cell) *cell {
	for a.depth > b.depth {
		a = a.up
	}
	for b.depth > a.depth {
		b = b.up
	}
	for a != b {
		a, b = a.up, b.up
	}
	return a
}

// Changed returns the changed elements in document order and clears every
// mark. The walk starts at the lowest cell containing all changes, descends
// only into subtrees holding changes and stops at that cell's skip target.
func (l *List) Changed() []*dom.Node {
	if l.top == nil {
		return nil
	}
	l.settle()

	start := l.top
	end := start.skip
	var out []*dom.Node
	for x := start; ; {
		next := x.skip
		if x.dirty || x.childDirty {
			next = x.next
		}
		if x.dirty {
			out = append(out, x.node)
		}
		x.dirty, x.childDirty = false, false
		x = next
		if x == end || x == l.root {
			break
		}
	}
	for a := start.up; a != nil && a.childDirty; a = a.up {
		a.childDirty = false
	}
	l.top = nil
	return out
}
