// Package timeline normalizes animation requests ("chunks") into one global
// sampling timeline.
//
// Every chunk brings its own targets, keyframes and timing. [Normalize]
// expands iterations and direction, remaps each keyframe offset into the
// shared runtime of all chunks, and returns the sorted set of instants at
// which every element has to be sampled. The function is pure: it reads the
// element tree only to resolve selectors.
package timeline
