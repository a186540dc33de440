// Package yaml wraps [github.com/goccy/go-yaml] with the decoding, encoding,
// validation and error reporting conventions used by dictamen.
//
// Errors produced here are [*Error] values. When the document source is
// attached, they render an excerpt of it pointing at the problem.
package yaml
