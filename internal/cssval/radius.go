package cssval

import (
	"fmt"

	"github.com/tdewolff/parse/v2/css"

	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// Corner is one elliptical corner radius.
type Corner struct {
	X, Y layout.Value
}

// Radius holds the four corners of a border-radius in the order top-left,
// top-right, bottom-right, bottom-left.
type Radius [4]Corner

// IsZero reports whether every corner is square.
func (r Radius) IsZero() bool {
	for _, c := range r {
		if !c.X.IsZero() || !c.Y.IsZero() {
			return false
		}
	}
	return true
}

// ParseRadius parses the border-radius shorthand, including the "h / v"
// elliptical form. An empty value yields square corners.
func ParseRadius(value string) (Radius, error) {
	var r Radius
	tokens, err := Tokenize(value)
	if err != nil {
		return r, err
	}
	if len(tokens) == 0 {
		return r, nil
	}

	var horizontal, vertical []layout.Value
	target := &horizontal
	for _, t := range tokens {
		if t.Type == css.DelimToken && t.Data == "/" {
			if target == &vertical {
				return r, fmt.Errorf("radius %q: more than one '/'", value)
			}
			target = &vertical
			continue
		}
		v, err := tokenLength(t)
		if err != nil {
			return r, fmt.Errorf("radius %q: %w", value, err)
		}
		*target = append(*target, v)
	}
	if len(horizontal) == 0 || len(horizontal) > 4 || len(vertical) > 4 {
		return r, fmt.Errorf("radius %q: want 1-4 values per axis", value)
	}
	if len(vertical) == 0 {
		vertical = horizontal
	}

	h := expandCorners(horizontal)
	v := expandCorners(vertical)
	for i := range r {
		r[i] = Corner{X: h[i], Y: v[i]}
	}
	return r, nil
}

// expandCorners applies the 1-4 value shorthand rule.
func expandCorners(vals []layout.Value) [4]layout.Value {
	switch len(vals) {
	case 1:
		return [4]layout.Value{vals[0], vals[0], vals[0], vals[0]}
	case 2:
		return [4]layout.Value{vals[0], vals[1], vals[0], vals[1]}
	case 3:
		return [4]layout.Value{vals[0], vals[1], vals[2], vals[1]}
	default:
		return [4]layout.Value{vals[0], vals[1], vals[2], vals[3]}
	}
}

// Percentages returns the radius as percentages of box, formatted as a
// border-radius value ("a% b% c% d% / e% f% g% h%"). Percent corners keep
// their value, pixel corners are divided by the box dimension.
func (r Radius) Percentages(box layout.Rect) string {
	var h, v [4]string
	for i, c := range r {
		h[i] = FormatNumber(percentOf(c.X, box.Width)) + "%"
		v[i] = FormatNumber(percentOf(c.Y, box.Height)) + "%"
	}
	return h[0] + " " + h[1] + " " + h[2] + " " + h[3] + " / " +
		v[0] + " " + v[1] + " " + v[2] + " " + v[3]
}

func percentOf(v layout.Value, dim float64) float64 {
	if v.Unit == layout.UnitPercent {
		return v.Amount
	}
	if dim <= 0 {
		return 0
	}
	return Round(v.Amount / dim * 100)
}
