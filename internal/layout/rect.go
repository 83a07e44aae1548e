package layout

import "math"

// Rect represents an element box in CSS pixels.
// Left and Top are the top-left corner; Width and Height are dimensions.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// NewRect creates a new Rect with the given position and dimensions.
func NewRect(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.Left + r.Width
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// IsEmpty returns true if the box has zero or negative area.
// An empty box cannot serve as a scale reference.
func (r Rect) IsEmpty() bool {
	return !(r.Width > 0) || !(r.Height > 0)
}

// IsFinite returns true if every coordinate is a finite number.
func (r Rect) IsFinite() bool {
	for _, v := range [...]float64{r.Left, r.Top, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Center returns the center point of the box.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Translate returns a new Rect moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Width: r.Width, Height: r.Height}
}

// RelativeTo returns the box expressed in the coordinate space of other,
// i.e. with other's top-left corner as the origin.
func (r Rect) RelativeTo(other Rect) Rect {
	return r.Translate(-other.Left, -other.Top)
}

// ContainsRect returns true if the other box is fully contained within this box.
func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	if r.IsEmpty() {
		return false
	}
	return other.Left >= r.Left && other.Top >= r.Top &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Union returns the smallest box that contains both boxes.
// If either box is empty, returns the other box.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}

	left := min(r.Left, other.Left)
	top := min(r.Top, other.Top)
	right := max(r.Right(), other.Right())
	bottom := max(r.Bottom(), other.Bottom())

	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Inset returns the distances from each edge of r inward to other, in the
// order top, right, bottom, left. Used to express other as a clip of r.
func (r Rect) Inset(other Rect) Edges {
	return Edges{
		Top:    other.Top - r.Top,
		Right:  r.Right() - other.Right(),
		Bottom: r.Bottom() - other.Bottom(),
		Left:   other.Left - r.Left,
	}
}

// Edges represents distances on four sides.
type Edges struct {
	Top, Right, Bottom, Left float64
}
