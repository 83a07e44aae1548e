// Package keyframe turns diff output into playable keyframes.
//
// Every element gets one keyframe per timeline offset carrying its FLIP
// transform and the easing envelope of the mains that affect it. Border
// radius, opacity and filter channels are only present when they carry
// information. Elements that end up hidden or collapsed get a one-shot
// override that takes them out of flow for the duration of the animation.
package keyframe
