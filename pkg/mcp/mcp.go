// Package mcp serves dictamen over the Model Context Protocol.
//
// The server exposes tools to evaluate rule conditions and to build the
// loaded report definition from form data, so that assistants can check rule
// sets and preview report text.
package mcp

const (
	name         = "dictamen"
	instructions = `MCP Server 'dictamen' builds report text from declarative rules and form data.

When to use these tools:
- Checking whether a rule condition holds for some form data
- Previewing the text of a report, or of some of its blocks, for some form data
- Finding out which blocks the loaded report definition has

Workflow:
1. Use 'list_blocks' to see the blocks of the loaded report definition
2. Use 'render_report' with the form data as a flat object, optionally restricted to some block IDs
3. Use 'evaluate_condition' to debug why a rule was or was not selected

Conditions support ==, !=, <, >, <=, >=, in, not in, and, or, not, parentheses,
and string, number, true/false/null and list literals. Names missing from the
data are null. Function calls, attribute access and arithmetic are rejected.
`

	previewLength = 2000
)

// truncateString truncates a string to maxLen bytes with a marker if needed.
func truncateString(str string, maxLen int) string {
	if len(str) > maxLen {
		return str[:maxLen] + "\n[OUTPUT TRUNCATED]"
	}

	return str
}
