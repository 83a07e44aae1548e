// Package bewegung computes and plays FLIP transitions between two visual
// states of an element tree.
//
// An Animation takes chunks (targets, keyframes, timing), samples the
// geometry of every affected element along the merged timeline, inverts the
// geometric change into per-element translate/scale keyframes and hands them
// to a Player. Geometry reads, style writes and the native animation objects
// are supplied by the host through StyleReader, StyleWriter and Player.
//
// Users import this single package for the public API: element construction,
// chunks, the Animation state machine, configuration and watchers.
package bewegung
