// Package cssval parses the handful of CSS value grammars the animation
// engine needs: lengths, two-axis positions (transform-origin,
// object-position), border-radius shorthands, and generic numeric values that
// can be interpolated between two keyframes.
//
// Tokenizing is done by the tdewolff CSS lexer; this package only assembles
// tokens into values.
package cssval
