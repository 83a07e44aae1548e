package cssval

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"github.com/copyandpaetow/bewegung-sub000/internal/layout"
)

// ParseLength parses a single px or percent length. A unitless zero is
// accepted as 0px.
func ParseLength(value string) (layout.Value, error) {
	tokens, err := Tokenize(value)
	if err != nil {
		return layout.Value{}, err
	}
	if len(tokens) != 1 {
		return layout.Value{}, fmt.Errorf("length %q: want one value, got %d", value, len(tokens))
	}
	return tokenLength(tokens[0])
}

func tokenLength(t Token) (layout.Value, error) {
	if !t.Numeric() {
		return layout.Value{}, fmt.Errorf("length %q is not numeric", t.Data)
	}
	v, unit, err := t.Number()
	if err != nil {
		return layout.Value{}, err
	}
	switch unit {
	case "px":
		return layout.Px(v), nil
	case "%":
		return layout.Percent(v), nil
	case "":
		if v == 0 {
			return layout.Px(0), nil
		}
	}
	return layout.Value{}, fmt.Errorf("length %q: unsupported unit %q", t.Data, unit)
}

// ParseOrigin parses a transform-origin or object-position value. Keywords
// (left, center, right, top, bottom) are accepted in either order; a third
// z component is ignored. An empty value yields the center.
func ParseOrigin(value string) (layout.Origin, error) {
	origin := layout.CenterOrigin
	tokens, err := Tokenize(value)
	if err != nil {
		return origin, err
	}
	if len(tokens) == 0 {
		return origin, nil
	}
	if len(tokens) > 3 {
		return origin, fmt.Errorf("origin %q: too many components", value)
	}
	if len(tokens) == 3 {
		tokens = tokens[:2]
	}

	var xSet, ySet bool
	for i, t := range tokens {
		if t.Type == css.IdentToken {
			switch strings.ToLower(t.Data) {
			case "left":
				origin.X, xSet = layout.Percent(0), true
			case "right":
				origin.X, xSet = layout.Percent(100), true
			case "top":
				origin.Y, ySet = layout.Percent(0), true
			case "bottom":
				origin.Y, ySet = layout.Percent(100), true
			case "center":
				// fills whichever axis is still open
			default:
				return layout.CenterOrigin, fmt.Errorf("origin %q: unknown keyword %q", value, t.Data)
			}
			continue
		}
		v, err := tokenLength(t)
		if err != nil {
			return layout.CenterOrigin, fmt.Errorf("origin %q: %w", value, err)
		}
		// a length in first position is horizontal unless x is taken
		if i == 0 && !xSet {
			origin.X, xSet = v, true
		} else if !ySet {
			origin.Y, ySet = v, true
		} else {
			origin.X, xSet = v, true
		}
	}
	return origin, nil
}
