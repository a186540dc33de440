// Package expr implements the restricted condition language used by rule
// blocks.
//
// A condition is a boolean expression over a flat variable [Context]:
//
//	tipo_opinion == 'favorable' and tipo_cuentas in ['normales', 'abreviadas']
//	not (incertidumbre == 'si') or 1 < num_salvedades <= 10
//
// The grammar is closed. It accepts only:
//
//   - Comparisons: ==, !=, <, >, <=, >=, in, not in (chains like a < b < c
//     mean a < b and b < c).
//   - Boolean connectives: and, or, not, with parentheses for grouping.
//   - Literals: quoted strings, integers, floats, true/false, null (and the
//     aliases True/False/None), and lists or tuples of those literals.
//   - Names, resolved against the context by exact key. An absent name is null.
//
// Anything else, such as calls, attribute or index access, arithmetic,
// assignment, comprehensions, conditional expressions or f-strings, is
// rejected while parsing with an [UnsupportedConstructError]. Malformed text
// fails with a [SyntaxError]. A parsed [Expression] therefore contains only
// the node types declared in this package, and evaluating it cannot fail.
package expr
