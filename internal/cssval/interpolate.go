package cssval

import (
	"math"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Round trims float noise to four decimals, enough for sub-pixel CSS.
func Round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Interpolate blends two CSS values at t in [0,1]. Both values must lex to
// the same token shape: numeric tokens with equal units are blended, every
// other token must match exactly. ok is false when the shapes differ, in
// which case callers hold the earlier value.
func Interpolate(from, to string, t float64) (string, bool) {
	if from == to {
		return from, true
	}
	a, err := Tokenize(from)
	if err != nil {
		return "", false
	}
	b, err := Tokenize(to)
	if err != nil || len(a) != len(b) || len(a) == 0 {
		return "", false
	}

	var sb strings.Builder
	for i := range a {
		if i > 0 && needsSpace(a[i-1], a[i]) {
			sb.WriteByte(' ')
		}
		if a[i].Numeric() && b[i].Numeric() {
			va, ua, errA := a[i].Number()
			vb, ub, errB := b[i].Number()
			if errA != nil || errB != nil || ua != ub {
				return "", false
			}
			sb.WriteString(FormatNumber(Round(va + (vb-va)*t)))
			sb.WriteString(ua)
			continue
		}
		if a[i].Type != b[i].Type || a[i].Data != b[i].Data {
			return "", false
		}
		sb.WriteString(a[i].Data)
	}
	return sb.String(), true
}

// needsSpace decides whether two adjacent tokens were separated in source.
// Whitespace is not kept by Tokenize, so separators are re-inserted between
// values but not around punctuation.
func needsSpace(prev, cur Token) bool {
	switch prev.Type {
	case css.FunctionToken, css.LeftParenthesisToken, css.CommaToken:
		return false
	}
	switch cur.Type {
	case css.RightParenthesisToken, css.CommaToken:
		return false
	}
	return true
}
