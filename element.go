// element.go re-exports the element tree from internal/dom.
package bewegung

import "github.com/copyandpaetow/bewegung-sub000/internal/dom"

// Element is one node of the visual tree.
type Element = dom.Node

// ElementOption configures an Element at construction.
type ElementOption = dom.Option

// Mutation describes one structural change of the tree.
type Mutation = dom.Mutation

// MutationKind distinguishes inserted from removed subtrees.
type MutationKind = dom.MutationKind

const (
	Added   = dom.Added
	Removed = dom.Removed
)

// NewElement creates a detached element. The default tag is "div".
func NewElement(opts ...ElementOption) *Element {
	return dom.New(opts...)
}

// WithID sets the element id used by #id selectors.
func WithID(id string) ElementOption { return dom.WithID(id) }

// WithTag sets the tag name.
func WithTag(tag string) ElementOption { return dom.WithTag(tag) }

// WithClass adds classes.
func WithClass(classes ...string) ElementOption { return dom.WithClass(classes...) }

// WithText sets the text content.
func WithText(text string) ElementOption { return dom.WithText(text) }

// WithChildren appends children without reporting mutations.
func WithChildren(children ...*Element) ElementOption { return dom.WithChildren(children...) }
