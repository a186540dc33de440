package expr

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches any [*SyntaxError].
	ErrSyntax = errors.New("expression syntax error")
	// ErrUnsupportedConstruct matches any [*UnsupportedConstructError].
	ErrUnsupportedConstruct = errors.New("unsupported construct")
)

// SyntaxError reports malformed expression text.
type SyntaxError struct {
	Expression string // Source text.
	Msg        string // What went wrong.
	Offset     int    // Byte offset into Expression.
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d in %q", ErrSyntax, e.Msg, e.Offset, e.Expression)
}

// Is reports whether target is [ErrSyntax].
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// UnsupportedConstructError reports a well-formed construct that is outside
// the condition grammar, e.g. a function call or attribute access.
type UnsupportedConstructError struct {
	Expression string // Source text.
	Construct  string // Name of the rejected construct.
	Offset     int    // Byte offset into Expression.
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s: %s at offset %d in %q", ErrUnsupportedConstruct, e.Construct, e.Offset, e.Expression)
}

// Is reports whether target is [ErrUnsupportedConstruct].
func (e *UnsupportedConstructError) Is(target error) bool {
	return target == ErrUnsupportedConstruct
}
