// Package rule selects and renders conditional text.
//
// A [Block] is an ordered list of [Rule]s, each pairing a condition with a
// template. The [Resolver] picks the first rule whose condition holds for the
// context and renders its template through a [Renderer]. Conditions are
// written in the language implemented by package expr.
package rule
