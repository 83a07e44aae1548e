// Package diff turns per-offset readouts into FLIP transforms.
//
// For every element the last readout is the reference. Each earlier readout
// is expressed as the translate and scale that make the reference box look
// like the sampled one, compensating for whatever scale the parent applies
// at the same offset. Entries where an element is not rendered borrow the
// nearest rendered box and collapse to zero scale. Images with an object-fit
// are handled by a wrapper and an inner counter-scale instead, so their
// content never stretches.
package diff
