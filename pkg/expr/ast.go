package expr

import (
	"strconv"
	"strings"
)

// Node is a node of a parsed condition. The set of implementations is closed:
// [*Comparison], [*Membership], [*BoolOp], [*Not], [*Name], [*Literal] and
// [*Sequence].
type Node interface {
	String() string

	node()
}

// CompareOp is an ordering or equality operator.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
)

var compareOpText = map[CompareOp]string{
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
}

func (op CompareOp) String() string {
	return compareOpText[op]
}

// BoolOperator is a binary boolean connective.
type BoolOperator int

const (
	OpAnd BoolOperator = iota
	OpOr
)

func (op BoolOperator) String() string {
	if op == OpOr {
		return "or"
	}

	return "and"
}

// Comparison is an equality or ordering test between two operands.
type Comparison struct {
	Left  Node
	Right Node
	Op    CompareOp
}

// Membership is an `in` or `not in` test.
type Membership struct {
	Element   Node
	Container Node
	Negated   bool
}

// BoolOp joins two or more operands with `and` or `or`.
type BoolOp struct {
	Operands []Node
	Op       BoolOperator
}

// Not negates its operand.
type Not struct {
	Operand Node
}

// Name references a context variable.
type Name struct {
	Ident string
}

// Literal is a scalar constant: nil, bool, int64, float64 or string.
type Literal struct {
	Value any
}

// Sequence is a list or tuple of literals.
type Sequence struct {
	Elements []Literal
	Tuple    bool
}

func (*Comparison) node() {}
func (*Membership) node() {}
func (*BoolOp) node()     {}
func (*Not) node()        {}
func (*Name) node()       {}
func (*Literal) node()    {}
func (*Sequence) node()   {}

func (n *Comparison) String() string {
	return operand(n.Left) + " " + n.Op.String() + " " + operand(n.Right)
}

func (n *Membership) String() string {
	op := " in "
	if n.Negated {
		op = " not in "
	}

	return operand(n.Element) + op + operand(n.Container)
}

func (n *BoolOp) String() string {
	parts := make([]string, len(n.Operands))
	for i, o := range n.Operands {
		parts[i] = operand(o)
	}

	return strings.Join(parts, " "+n.Op.String()+" ")
}

func (n *Not) String() string {
	return "not " + operand(n.Operand)
}

func (n *Name) String() string {
	return n.Ident
}

func (n *Literal) String() string {
	return FormatLiteral(n.Value)
}

func (n *Sequence) String() string {
	parts := make([]string, len(n.Elements))
	for i := range n.Elements {
		parts[i] = n.Elements[i].String()
	}

	if !n.Tuple {
		return "[" + strings.Join(parts, ", ") + "]"
	}

	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// operand renders a child node, parenthesizing anything that is not atomic.
func operand(n Node) string {
	switch n.(type) {
	case *Name, *Literal, *Sequence:
		return n.String()
	}

	return "(" + n.String() + ")"
}

// FormatLiteral renders a Go value as condition literal text. Strings are
// single-quoted; slices become lists. Values of any other type render as null.
func FormatLiteral(v any) string {
	switch v := normalize(v).(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}

		return s
	case string:
		return quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = FormatLiteral(e)
		}

		return "[" + strings.Join(parts, ", ") + "]"
	}

	return "null"
}

func quote(s string) string {
	var sb strings.Builder

	sb.WriteByte('\'')

	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('\'')

	return sb.String()
}
