package expr

import (
	"log/slog"
	"reflect"
	"strings"
)

// Context is the flat variable map a condition is evaluated against.
// Evaluation never modifies it.
type Context map[string]any

// eval evaluates a node and returns its value. Boolean connectives return the
// operand that decided the result.
func eval(n Node, ctx Context) any {
	switch n := n.(type) {
	case *Literal:
		return n.Value

	case *Name:
		v, ok := ctx[n.Ident]
		if !ok {
			slog.Debug("undefined variable evaluates to null", slog.String("name", n.Ident))

			return nil
		}

		return normalize(v)

	case *Sequence:
		out := make([]any, len(n.Elements))
		for i := range n.Elements {
			out[i] = n.Elements[i].Value
		}

		return out

	case *Not:
		return !truthy(eval(n.Operand, ctx))

	case *BoolOp:
		var v any
		for _, o := range n.Operands {
			v = eval(o, ctx)
			if truthy(v) == (n.Op == OpOr) {
				return v
			}
		}

		return v

	case *Comparison:
		return compare(n.Op, eval(n.Left, ctx), eval(n.Right, ctx))

	case *Membership:
		return contains(eval(n.Container, ctx), eval(n.Element, ctx)) != n.Negated
	}

	return nil
}

func compare(op CompareOp, a, b any) bool {
	switch op {
	case OpEqual:
		return equal(a, b)
	case OpNotEqual:
		return !equal(a, b)
	}

	c, ok := order(a, b)
	if !ok {
		return false
	}

	switch op {
	case OpLess:
		return c < 0
	case OpGreater:
		return c > 0
	case OpLessEqual:
		return c <= 0
	case OpGreaterEqual:
		return c >= 0
	case OpEqual, OpNotEqual:
	}

	return false
}

// normalize maps Go values onto the evaluator's value domain: nil, bool,
// int64, float64, string, []any and map[string]any. Other values pass through
// unchanged and only ever compare equal to themselves.
func normalize(v any) any {
	switch v := v.(type) {
	case nil, bool, int64, float64, string, []any, map[string]any:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v) //nolint:gosec // Form values are far below the overflow bound.
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v) //nolint:gosec // Form values are far below the overflow bound.
	case float32:
		return float64(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}

		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}

		return out
	}

	return v
}

// truthy reports the boolean interpretation of a value: null, false, zero,
// and empty strings, lists and maps are false.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}

	return true
}

// number returns the numeric value of v. Booleans count as 0 and 1.
func number(v any) (float64, bool) {
	switch v := v.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}

		return 0, true
	}

	return 0, false
}

func equal(a, b any) bool {
	a, b = normalize(a), normalize(b)

	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return ai == bi
		}
	}

	if x, ok := number(a); ok {
		y, ok := number(b)

		return ok && x == y
	}

	switch a := a.(type) {
	case string:
		s, ok := b.(string)

		return ok && a == s

	case []any:
		l, ok := b.([]any)
		if !ok || len(a) != len(l) {
			return false
		}

		for i := range a {
			if !equal(a[i], l[i]) {
				return false
			}
		}

		return true
	}

	return reflect.DeepEqual(a, b)
}

// order compares two values, reporting false when they have no ordering.
func order(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)

	if ai, ok := a.(int64); ok {
		if bi, ok := b.(int64); ok {
			return cmp3(ai, bi), true
		}
	}

	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok || x != x || y != y { // NaN has no ordering.
			return 0, false
		}

		return cmp3(x, y), true
	}

	switch a := a.(type) {
	case string:
		s, ok := b.(string)
		if !ok {
			return 0, false
		}

		return strings.Compare(a, s), true

	case []any:
		l, ok := b.([]any)
		if !ok {
			return 0, false
		}

		for i := range min(len(a), len(l)) {
			if equal(a[i], l[i]) {
				continue
			}

			return order(a[i], l[i])
		}

		return cmp3(len(a), len(l)), true
	}

	return 0, false
}

func cmp3[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// contains implements `in`. Lists test elements by equality, strings test
// for a substring and maps test for a key. Any other container holds nothing.
func contains(container, element any) bool {
	element = normalize(element)

	switch c := normalize(container).(type) {
	case []any:
		for _, e := range c {
			if equal(e, element) {
				return true
			}
		}

	case string:
		s, ok := element.(string)

		return ok && strings.Contains(c, s)

	case map[string]any:
		s, ok := element.(string)
		if !ok {
			return false
		}

		_, found := c[s]

		return found
	}

	return false
}
