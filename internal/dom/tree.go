package dom

// MutationKind distinguishes inserted from removed subtrees.
type MutationKind int

const (
	// Added means Node (and its subtree) was inserted under Parent.
	Added MutationKind = iota
	// Removed means Node (and its subtree) was detached from Parent.
	Removed
)

// Mutation describes one structural change.
// For removals, Previous is the sibling that preceded Node before it was
// detached, or nil when Node was the first child.
type Mutation struct {
	Kind     MutationKind
	Node     *Node
	Parent   *Node
	Previous *Node
}

// SetOnMutation sets the callback for structural changes anywhere below this
// node. Only the callback on the tree root is consulted.
func (n *Node) SetOnMutation(fn func(Mutation)) {
	n.onMutation = fn
}

func (n *Node) notify(m Mutation) {
	if root := n.Root(); root.onMutation != nil {
		root.onMutation(m)
	}
}

// AddChild appends children to this node.
// Notifies the root's mutation callback for each child.
func (n *Node) AddChild(children ...*Node) {
	for _, child := range children {
		child.parent = n
		n.children = append(n.children, child)
		n.notify(Mutation{Kind: Added, Node: child, Parent: n})
	}
}

// InsertBefore inserts child before ref. A nil or foreign ref appends.
func (n *Node) InsertBefore(child, ref *Node) {
	idx := n.indexOf(ref)
	if idx < 0 {
		n.AddChild(child)
		return
	}
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	n.notify(Mutation{Kind: Added, Node: child, Parent: n})
}

// RemoveChild removes a child from this node, keeping sibling order.
// Returns true if the child was found and removed.
func (n *Node) RemoveChild(child *Node) bool {
	idx := n.indexOf(child)
	if idx < 0 {
		return false
	}
	var prev *Node
	if idx > 0 {
		prev = n.children[idx-1]
	}
	// Report before detaching so listeners can still see the position.
	n.notify(Mutation{Kind: Removed, Node: child, Parent: n, Previous: prev})
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil
	return true
}

func (n *Node) indexOf(child *Node) int {
	if child == nil {
		return -1
	}
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Children returns the child nodes.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the parent node, or nil if this is a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Root returns the topmost ancestor (or n itself).
func (n *Node) Root() *Node {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// PreviousSibling returns the sibling immediately before n, or nil.
func (n *Node) PreviousSibling() *Node {
	if n.parent == nil {
		return nil
	}
	idx := n.parent.indexOf(n)
	if idx <= 0 {
		return nil
	}
	return n.parent.children[idx-1]
}

// LastDescendant returns the last node of n's subtree in document order.
func (n *Node) LastDescendant() *Node {
	last := n
	for len(last.children) > 0 {
		last = last.children[len(last.children)-1]
	}
	return last
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Ancestors returns the chain parent, grandparent, ... up to and including
// stop. A nil stop walks to the root. If stop is not an ancestor the chain
// ends at the root.
func (n *Node) Ancestors(stop *Node) []*Node {
	var chain []*Node
	if n == stop {
		return chain
	}
	for cur := n.parent; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
		if cur == stop {
			break
		}
	}
	return chain
}

// Walk visits n and its descendants in document (pre-order) order.
// Returning false from fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}
