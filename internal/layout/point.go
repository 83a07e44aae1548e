package layout

// Point is a position in CSS pixels.
type Point struct {
	X, Y float64
}
