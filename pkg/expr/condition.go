package expr

import (
	"strings"
)

// Condition is a structured form of a condition, convenient for YAML
// configuration. Set exactly one of the comparison fields together with Field,
// or one of the combinators All, Any and Not. A zero Condition is `true`.
type Condition struct {
	Equals    any          `json:"equals,omitempty"    yaml:"equals,omitempty"`
	NotEquals any          `json:"notEquals,omitempty" yaml:"notEquals,omitempty"`
	Greater   any          `json:"greater,omitempty"   yaml:"greater,omitempty"`
	Less      any          `json:"less,omitempty"      yaml:"less,omitempty"`
	Not       *Condition   `json:"not,omitempty"       yaml:"not,omitempty"`
	Field     string       `json:"field,omitempty"     yaml:"field,omitempty"`
	In        []any        `json:"in,omitempty"        yaml:"in,omitempty"`
	All       []*Condition `json:"all,omitempty"       yaml:"all,omitempty"`
	Any       []*Condition `json:"any,omitempty"       yaml:"any,omitempty"`
}

// String renders the condition as expression text.
func (c *Condition) String() string {
	if c == nil {
		return "true"
	}

	var parts []string

	if c.Field != "" {
		switch {
		case c.Equals != nil:
			parts = append(parts, c.Field+" == "+FormatLiteral(c.Equals))
		case c.NotEquals != nil:
			parts = append(parts, c.Field+" != "+FormatLiteral(c.NotEquals))
		case c.Greater != nil:
			parts = append(parts, c.Field+" > "+FormatLiteral(c.Greater))
		case c.Less != nil:
			parts = append(parts, c.Field+" < "+FormatLiteral(c.Less))
		case c.In != nil:
			parts = append(parts, c.Field+" in "+FormatLiteral(c.In))
		default:
			parts = append(parts, c.Field)
		}
	}

	if len(c.All) > 0 {
		parts = append(parts, join(c.All, " and "))
	}

	if len(c.Any) > 0 {
		parts = append(parts, join(c.Any, " or "))
	}

	if c.Not != nil {
		parts = append(parts, "not ("+c.Not.String()+")")
	}

	switch len(parts) {
	case 0:
		return "true"
	case 1:
		return parts[0]
	}

	return group(parts, " and ")
}

func join(cs []*Condition, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}

	if len(parts) == 1 {
		return parts[0]
	}

	return group(parts, sep)
}

func group(parts []string, sep string) string {
	return "(" + strings.Join(parts, ")"+sep+"(") + ")"
}
