// Package layout provides the float geometry used when diffing element boxes.
//
// Readouts report boxes in CSS pixels with fractional precision, so unlike a
// cell grid every coordinate here is a float64. Lengths that may be given in
// percent (transform-origin, object-position, border-radius) are modelled as
// [Value] and resolved against the box they belong to.
package layout
