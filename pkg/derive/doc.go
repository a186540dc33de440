// Package derive computes auxiliary report variables with CEL (Common
// Expression Language) expressions before rule blocks are resolved.
//
// CEL expressions have access to one variable:
//   - `data` (map<string, dyn>): the form data plus every variable derived
//     before the current one
//
// Besides the standard CEL library and the strings, math and lists
// extensions, these functions are available:
//   - get(map, key, default): the value at key, or default when it is absent
//     or null
//   - plural(n, singular, plural): singular when n <= 1, otherwise plural
package derive
