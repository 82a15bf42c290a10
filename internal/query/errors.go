package query

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrSyntax          = errors.New("syntax error")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrArity           = errors.New("wrong number of arguments")
	ErrArgument        = errors.New("invalid argument")
	ErrPattern         = errors.New("invalid pattern")
)

// Error is returned by the parser and the compiler. Position is the byte
// offset of the offending token in the expression, or -1 when the error
// refers to the end of input.
type Error struct {
	Kind     error
	Message  string
	Token    string
	Position int
	Err      error
}

func newError(kind error, pos int, token, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Token:    token,
		Position: pos,
	}
}

func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Kind, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause, e.g. a *syntax.Error from regexp.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindName returns a short identifier for the kind of err, or "" when err
// does not come from this package.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrSyntax):
		return "syntax"
	case errors.Is(err, ErrUnknownOperator):
		return "unknown_operator"
	case errors.Is(err, ErrArity):
		return "arity"
	case errors.Is(err, ErrArgument):
		return "argument"
	case errors.Is(err, ErrPattern):
		return "pattern"
	}
	return ""
}
