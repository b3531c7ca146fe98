package expression

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMalformed matches every *ParseError.
var ErrMalformed = errors.New("malformed cell text")

var (
	ErrEmpty            = errors.New("empty input")
	ErrInvalidCharacter = errors.New("invalid character")
	ErrUnexpectedToken  = errors.New("unexpected token")
	ErrUnexpectedEnd    = errors.New("unexpected end of input")
	ErrNumberRange      = errors.New("number out of range")
	ErrNestingTooDeep   = errors.New("parentheses nested too deep")
)

var (
	ErrDanglingReference = errors.New("reference to empty cell")
	ErrCircularReference = errors.New("recursive reference")
	ErrMaxDepth          = errors.New("reference chain too long")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrIntegerOverflow   = errors.New("integer overflow")
)

// ParseError reports where in the cell text parsing failed.
type ParseError struct {
	Input  string
	Offset int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %q at offset %d: %s", e.Input, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformed, e.Err}
}

// ReferenceError is returned when the cell at Position could not be used as a
// value: it is empty, it is already being resolved, or its text does not parse.
type ReferenceError struct {
	Position Position
	Err      error
}

func (e *ReferenceError) Error() string {
	if errors.Is(e.Err, ErrCircularReference) {
		return fmt.Sprintf("recursive reference to %s", e.Position)
	}
	return fmt.Sprintf("cell %s: %s", e.Position, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

type UnsupportedError struct {
	Expr Expr
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported expression type: %T", e.Expr)
}

func errMissingRow(column string) error {
	return fmt.Errorf("%w: reference %q has no row number", ErrUnexpectedToken, column)
}

func errInvalidCharacter(rest string) error {
	r, _ := utf8.DecodeRuneInString(rest)
	return fmt.Errorf("%w %q", ErrInvalidCharacter, r)
}

func errUnexpected(token Token, expected string) error {
	return fmt.Errorf("%w %q expected %s", ErrUnexpectedToken, token.Value, expected)
}
