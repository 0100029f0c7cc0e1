package features

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrNonNumeric  = errors.New("non-numeric value")
	ErrWrongArity  = errors.New("wrong number of values")
	errUnknownKind = errors.New("parse error")
)

// Kind classifies a ParseError.
type Kind int

const (
	// NonNumeric means a token could not be converted to a number.
	NonNumeric Kind = iota + 1
	// WrongArity means the number of values was not Count.
	WrongArity
)

func (k Kind) String() string {
	switch k {
	case NonNumeric:
		return "non_numeric"
	case WrongArity:
		return "wrong_arity"
	default:
		return "unknown"
	}
}

// ParseError reports why raw input could not become a Vector.
type ParseError struct {
	Kind Kind

	// Token and Position identify the offending token for NonNumeric.
	Token    string
	Position int

	// Expected and Actual are the value counts for WrongArity.
	Expected int
	Actual   int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case NonNumeric:
		return fmt.Sprintf("invalid input: value %d (%q) is not numeric; ensure values are numeric and comma-separated", e.Position, e.Token)
	case WrongArity:
		return fmt.Sprintf("expected %d values, but got %d", e.Expected, e.Actual)
	default:
		return errUnknownKind.Error()
	}
}

// Unwrap maps the error kind to its sentinel.
func (e *ParseError) Unwrap() error {
	switch e.Kind {
	case NonNumeric:
		return ErrNonNumeric
	case WrongArity:
		return ErrWrongArity
	default:
		return errUnknownKind
	}
}
