// Package graph resolves which elements an animation touches.
//
// Elements named by a chunk are mains. Everything whose geometry can shift
// because a main changes is secondary: the main's descendants, its ancestors
// up to the animation root, and the siblings along that ancestor chain. Each
// element gets a Key into the graph's arena; keys are only valid for the
// graph generation that produced them.
package graph
