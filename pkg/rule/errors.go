package rule

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedBlock matches any [*UnresolvedBlockError].
	ErrUnresolvedBlock = errors.New("no rule matched")
	// ErrRender matches any [*RenderError].
	ErrRender = errors.New("render template")
)

// UnresolvedBlockError reports a block in which no rule matched. It points at
// a block that is missing its trailing `true` rule.
type UnresolvedBlockError struct {
	BlockID string
}

func (e *UnresolvedBlockError) Error() string {
	return fmt.Sprintf("block %q: %v", e.BlockID, ErrUnresolvedBlock)
}

// Is reports whether target is [ErrUnresolvedBlock].
func (e *UnresolvedBlockError) Is(target error) bool {
	return target == ErrUnresolvedBlock
}

// RenderError reports a failure to render the template of a selected rule.
type RenderError struct {
	Err     error
	BlockID string
	Rule    int // Index of the selected rule.
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("block %q: rule %d: %v: %v", e.BlockID, e.Rule, ErrRender, e.Err)
}

// Is reports whether target is [ErrRender].
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
