// Package easing models timing functions as cubic-bezier curves.
//
// Keyword curves resolve to their bezier definitions. Merging several curves
// that are active on the same interval is done with [Envelope], which takes
// the component-wise maximum of the four control coefficients. That is an
// approximation: it is not a true composition of the curves and the result
// may deviate visibly from every single input.
package easing

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"github.com/copyandpaetow/bewegung-sub000/internal/cssval"
)

// Bezier is a CSS cubic-bezier(x1, y1, x2, y2) timing function.
type Bezier struct {
	X1, Y1, X2, Y2 float64
}

// Keyword curves.
var (
	Linear    = Bezier{0, 0, 1, 1}
	Ease      = Bezier{0.25, 0.1, 0.25, 1}
	EaseIn    = Bezier{0.42, 0, 1, 1}
	EaseOut   = Bezier{0, 0, 0.58, 1}
	EaseInOut = Bezier{0.42, 0, 0.58, 1}
)

var keywords = map[string]Bezier{
	"linear":      Linear,
	"ease":        Ease,
	"ease-in":     EaseIn,
	"ease-out":    EaseOut,
	"ease-in-out": EaseInOut,
}

// Parse reads a keyword or cubic-bezier() timing function. An empty string
// is the CSS default, "ease". Step functions are not supported because they
// cannot be merged into a bezier envelope.
func Parse(value string) (Bezier, error) {
	tokens, err := cssval.Tokenize(value)
	if err != nil {
		return Bezier{}, err
	}
	if len(tokens) == 0 {
		return Ease, nil
	}

	head := tokens[0]
	if head.Type == css.IdentToken && len(tokens) == 1 {
		if b, ok := keywords[strings.ToLower(head.Data)]; ok {
			return b, nil
		}
		return Bezier{}, fmt.Errorf("easing %q: unknown keyword", value)
	}
	if head.Type != css.FunctionToken || !strings.EqualFold(head.Data, "cubic-bezier(") {
		return Bezier{}, fmt.Errorf("easing %q: unsupported timing function", value)
	}

	var nums []float64
	for _, t := range tokens[1:] {
		switch {
		case t.Type == css.CommaToken, t.Type == css.RightParenthesisToken:
			continue
		case t.Type == css.NumberToken:
			v, _, err := t.Number()
			if err != nil {
				return Bezier{}, fmt.Errorf("easing %q: %w", value, err)
			}
			nums = append(nums, v)
		default:
			return Bezier{}, fmt.Errorf("easing %q: unexpected %q", value, t.Data)
		}
	}
	if len(nums) != 4 {
		return Bezier{}, fmt.Errorf("easing %q: want 4 coefficients, got %d", value, len(nums))
	}
	b := Bezier{nums[0], nums[1], nums[2], nums[3]}
	if b.X1 < 0 || b.X1 > 1 || b.X2 < 0 || b.X2 > 1 {
		return Bezier{}, fmt.Errorf("easing %q: x coefficients must be within [0,1]", value)
	}
	return b, nil
}

// Envelope merges curves active on the same interval by taking the
// component-wise maximum of their coefficients. The result approximates the
// composed timing and need not match any single input. No curves yields
// Linear.
func Envelope(curves ...Bezier) Bezier {
	if len(curves) == 0 {
		return Linear
	}
	out := curves[0]
	for _, c := range curves[1:] {
		out.X1 = max(out.X1, c.X1)
		out.Y1 = max(out.Y1, c.Y1)
		out.X2 = max(out.X2, c.X2)
		out.Y2 = max(out.Y2, c.Y2)
	}
	return out
}

// String returns the keyword for well-known curves and the cubic-bezier()
// form otherwise.
func (b Bezier) String() string {
	for name, k := range keywords {
		if k == b {
			return name
		}
	}
	return "cubic-bezier(" + cssval.FormatNumber(b.X1) + "," + cssval.FormatNumber(b.Y1) + "," +
		cssval.FormatNumber(b.X2) + "," + cssval.FormatNumber(b.Y2) + ")"
}
