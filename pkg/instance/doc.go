// Package instance repeats a rule block once per instance of a repeated
// item, such as each qualification in an audit opinion.
//
// Each instance is described by a map of field overrides. The [Expander]
// layers the overrides of instance i onto a copy of the shared context,
// resolves the block against it, and joins the N results with blank lines.
// A single instance with no overrides resolves exactly like the block
// itself.
//
// Form data that encodes instances in flat keys such as
// salvedad_2__numero_nota can be converted with [FromPrefixed].
package instance
