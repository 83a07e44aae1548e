package cssval

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Token is a lexed CSS token with its data copied out of the lexer buffer.
type Token struct {
	Type css.TokenType
	Data string
}

// Tokenize lexes a CSS value. Whitespace and comments are dropped.
func Tokenize(value string) ([]Token, error) {
	l := css.NewLexer(parse.NewInputString(value))
	var tokens []Token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, fmt.Errorf("lex %q: %w", value, err)
			}
			return tokens, nil
		case css.WhitespaceToken, css.CommentToken:
			continue
		}
		tokens = append(tokens, Token{Type: tt, Data: string(data)})
	}
}

// Numeric reports whether the token carries a number.
func (t Token) Numeric() bool {
	switch t.Type {
	case css.NumberToken, css.PercentageToken, css.DimensionToken:
		return true
	}
	return false
}

// Number splits a numeric token into its value and lower-cased unit
// ("%" for percentages, "" for bare numbers).
func (t Token) Number() (float64, string, error) {
	switch t.Type {
	case css.NumberToken:
		v, err := strconv.ParseFloat(t.Data, 64)
		return v, "", err
	case css.PercentageToken:
		v, err := strconv.ParseFloat(strings.TrimSuffix(t.Data, "%"), 64)
		return v, "%", err
	case css.DimensionToken:
		num, unit := splitDimension(t.Data)
		v, err := strconv.ParseFloat(num, 64)
		return v, unit, err
	}
	return 0, "", fmt.Errorf("token %q is not numeric", t.Data)
}

// splitDimension separates the numeric prefix of a dimension token from its unit.
func splitDimension(s string) (string, string) {
	end := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' {
			end = i + 1
			continue
		}
		// exponent, only when followed by a digit or sign
		if (c == 'e' || c == 'E') && i+1 < len(s) && (s[i+1] == '-' || s[i+1] == '+' || (s[i+1] >= '0' && s[i+1] <= '9')) {
			end = i + 1
			continue
		}
		break
	}
	return s[:end], strings.ToLower(s[end:])
}

// FormatNumber prints a float the way CSS expects it: no exponent, no
// trailing zeros.
func FormatNumber(v float64) string {
	if v == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
