// Package dom models the visual element tree that animations are computed over.
//
// Nodes own their children directly and keep a parent pointer, so ancestor
// chains, sibling sets and containment checks are all pointer walks. Structural
// changes made through the tree API are reported to the root's mutation
// listener, which is how watchers learn about inserted and removed subtrees.
package dom
