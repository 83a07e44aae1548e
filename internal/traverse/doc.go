// Package traverse keeps a skip-linked pre-order list over an element tree.
//
// Every element has two forward pointers: next, which enters the element's
// subtree, and skip, which jumps past it. A walk over the changed region
// follows next through subtrees that contain changes and skip over everything
// else, so re-diffing after a mutation costs time proportional to the changed
// elements instead of the tree size.
//
// The list is circular through the root: the last element's next and the
// root's skip both point at the root, and walks stop there explicitly.
package traverse
