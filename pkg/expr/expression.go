package expr

import (
	"slices"
)

// Expression is a parsed condition. It is immutable and safe for concurrent use.
type Expression struct {
	root   Node
	source string
}

// Parse parses a condition. It returns a [*SyntaxError] for malformed text and
// an [*UnsupportedConstructError] for constructs outside the grammar.
func Parse(s string) (*Expression, error) {
	root, err := parse(s)
	if err != nil {
		return nil, err
	}

	return &Expression{source: s, root: root}, nil
}

// MustParse is like [Parse] but panics on error.
func MustParse(s string) *Expression {
	e, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return e
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

// Root returns the root node of the parse tree.
//
//nolint:ireturn // Closed sum type.
func (e *Expression) Root() Node {
	return e.root
}

// String returns the canonical rendering of the parse tree.
func (e *Expression) String() string {
	return e.root.String()
}

// Eval reports whether the expression holds for ctx.
func (e *Expression) Eval(ctx Context) bool {
	return truthy(eval(e.root, ctx))
}

// Value evaluates the expression and returns the raw result before it is
// interpreted as a boolean. For `a or b` this is the deciding operand.
func (e *Expression) Value(ctx Context) any {
	return eval(e.root, ctx)
}

// Variables returns the sorted, distinct names the expression references.
func (e *Expression) Variables() []string {
	var names []string

	walk(e.root, func(n Node) {
		if name, ok := n.(*Name); ok {
			names = append(names, name.Ident)
		}
	})

	slices.Sort(names)

	return slices.Compact(names)
}

func walk(n Node, fn func(Node)) {
	fn(n)

	switch n := n.(type) {
	case *Comparison:
		walk(n.Left, fn)
		walk(n.Right, fn)
	case *Membership:
		walk(n.Element, fn)
		walk(n.Container, fn)
	case *BoolOp:
		for _, o := range n.Operands {
			walk(o, fn)
		}
	case *Not:
		walk(n.Operand, fn)
	}
}
