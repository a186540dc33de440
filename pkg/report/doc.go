// Package report builds the text of a report from form data.
//
// A [Builder] runs a report definition end to end: it derives variables from
// the form data, resolves every block against the same context (expanding
// repeated blocks once per instance), folds the block texts back into the
// context and rewrites plural markers for the report's count.
//
// Template failures are contained to the block or instance that caused them
// and returned as [Diagnostic]s. Unresolved blocks, bad conditions and
// out-of-range counts abort the build.
package report
