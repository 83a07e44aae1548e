package layout

// Unit specifies how a Value is interpreted.
type Unit uint8

const (
	UnitPixel   Unit = iota // Absolute CSS pixels
	UnitPercent             // Percentage of the reference dimension
)

// Value represents a length that can be absolute or relative to a box.
type Value struct {
	Amount float64
	Unit   Unit
}

// Px returns a Value representing an absolute number of pixels.
func Px(n float64) Value {
	return Value{Amount: n, Unit: UnitPixel}
}

// Percent returns a Value representing a percentage of the reference dimension.
// The value is on a 0-100 scale (50.0 = 50%).
func Percent(p float64) Value {
	return Value{Amount: p, Unit: UnitPercent}
}

// Resolve computes the pixel value given the reference dimension.
func (v Value) Resolve(reference float64) float64 {
	switch v.Unit {
	case UnitPercent:
		return reference * v.Amount / 100.0
	default:
		return v.Amount
	}
}

// IsZero returns true if the value resolves to zero for any reference.
func (v Value) IsZero() bool {
	return v.Amount == 0
}

// Origin is a two-axis position inside a box, as used by transform-origin
// and object-position.
type Origin struct {
	X, Y Value
}

// CenterOrigin is the initial value of transform-origin and object-position.
var CenterOrigin = Origin{X: Percent(50), Y: Percent(50)}

// Resolve returns the origin as a point relative to the box's top-left corner.
func (o Origin) Resolve(box Rect) Point {
	return Point{X: o.X.Resolve(box.Width), Y: o.Y.Resolve(box.Height)}
}
