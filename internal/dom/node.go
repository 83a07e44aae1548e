package dom

import "strings"

// Kind classifies a node for the diff engine.
type Kind int

const (
	// KindDefault is a regular box that is scaled and translated.
	KindDefault Kind = iota
	// KindImage is a replaced element whose content must never stretch.
	KindImage
	// KindText is a leaf whose only content is non-empty text.
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "default"
	}
}

// Node is one element in the visual tree.
type Node struct {
	// Tree structure (single source of truth)
	children []*Node
	parent   *Node

	id      string
	tag     string
	classes []string
	text    string

	// Tree notification, only consulted on the root
	onMutation func(Mutation)
}

// Option configures a Node.
type Option func(*Node)

// WithID sets the node id used by #id selectors.
func WithID(id string) Option {
	return func(n *Node) {
		n.id = id
	}
}

// WithTag sets the tag name. Tags are compared case-insensitively.
func WithTag(tag string) Option {
	return func(n *Node) {
		n.tag = strings.ToLower(tag)
	}
}

// WithClass adds one or more classes.
func WithClass(classes ...string) Option {
	return func(n *Node) {
		n.classes = append(n.classes, classes...)
	}
}

// WithText sets the text content of the node.
func WithText(text string) Option {
	return func(n *Node) {
		n.text = text
	}
}

// WithChildren appends children at construction time.
// No mutation is reported for them.
func WithChildren(children ...*Node) Option {
	return func(n *Node) {
		for _, c := range children {
			c.parent = n
			n.children = append(n.children, c)
		}
	}
}

// New creates a detached node. The default tag is "div".
func New(opts ...Option) *Node {
	n := &Node{tag: "div"}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ID returns the node id, or "" when none was set.
func (n *Node) ID() string {
	return n.id
}

// Tag returns the lower-cased tag name.
func (n *Node) Tag() string {
	return n.tag
}

// Classes returns the node's classes.
func (n *Node) Classes() []string {
	return n.classes
}

// HasClass reports whether the node carries class c.
func (n *Node) HasClass(c string) bool {
	for _, own := range n.classes {
		if own == c {
			return true
		}
	}
	return false
}

// Text returns the text content.
func (n *Node) Text() string {
	return n.text
}

// SetText updates the text content.
func (n *Node) SetText(text string) {
	n.text = text
}

// Kind classifies the node. Images are recognised by tag; a text node is a
// leaf whose only content is non-empty text.
func (n *Node) Kind() Kind {
	switch n.tag {
	case "img", "picture", "video":
		return KindImage
	}
	if len(n.children) == 0 && strings.TrimSpace(n.text) != "" {
		return KindText
	}
	return KindDefault
}

// String returns a short, selector-like description for logs.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var sb strings.Builder
	sb.WriteString(n.tag)
	if n.id != "" {
		sb.WriteByte('#')
		sb.WriteString(n.id)
	}
	for _, c := range n.classes {
		sb.WriteByte('.')
		sb.WriteString(c)
	}
	return sb.String()
}
