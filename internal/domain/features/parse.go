package features

import (
	"errors"
	"strconv"
	"strings"
)

// Separator delimits values in raw input.
const Separator = ","

// Parse converts a comma-separated list of numbers into a Vector.
//
// Every token is trimmed and converted before the count is checked, so an
// input that is both short and malformed reports NonNumeric. NaN and Inf
// literals are accepted; no range checks are applied.
func Parse(raw string) (Vector, error) {
	tokens := strings.Split(raw, Separator)
	vals := make([]float64, 0, len(tokens))
	for i, tok := range tokens {
		tok = strings.TrimSpace(tok)
		f, err := strconv.ParseFloat(tok, 64)
		// Overflow still yields ±Inf or 0, matching float conversion elsewhere.
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Vector{}, &ParseError{Kind: NonNumeric, Token: tok, Position: i + 1}
		}
		vals = append(vals, f)
	}
	return FromValues(vals)
}

// ParseValues validates an already-numeric observation.
func ParseValues(vals []float64) (Vector, error) {
	return FromValues(vals)
}
