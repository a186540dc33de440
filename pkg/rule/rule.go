package rule

import (
	"fmt"

	"github.com/macropower/dictamen/pkg/expr"
)

// Rule pairs a condition with the template rendered when it holds.
//
// Conditions are restricted boolean expressions over the report context:
//   - true - always matches; use it as the last rule of a block
//   - tipo_opinion == 'favorable'
//   - tipo_cuentas in ['normales', 'abreviadas'] and not incertidumbre
//   - 1 < num_salvedades <= 10
//
// Names that are absent from the context evaluate to null.
type Rule struct {
	condition *expr.Expression // Compiled When expression.

	// Match is a structured alternative to When. It is used only when When
	// is empty.
	Match *expr.Condition `json:"match,omitempty" jsonschema:"title=Structured Condition" yaml:"match,omitempty"`
	// When is the condition under which this rule is selected. Defaults to true.
	When string `json:"when,omitempty" jsonschema:"title=Condition" yaml:"when,omitempty"`
	// Template is the text rendered when this rule is selected.
	Template string `json:"template" jsonschema:"title=Template" yaml:"template"`
}

// New creates a new rule with the given condition and template.
func New(when, template string) (*Rule, error) {
	r := &Rule{
		When:     when,
		Template: template,
	}
	if err := r.Compile(nil); err != nil {
		return nil, err
	}

	return r, nil
}

// MustNew creates a new rule and panics if there's an error.
func MustNew(when, template string) *Rule {
	r, err := New(when, template)
	if err != nil {
		panic(err)
	}

	return r
}

// EnsureDefaults derives When from Match, or sets it to true, when it is empty.
func (r *Rule) EnsureDefaults() {
	if r.When == "" {
		r.When = r.Match.String()
	}
}

// Compile parses the rule's condition, using ev when it is non-nil.
// It is a no-op once the condition has been compiled.
func (r *Rule) Compile(ev *expr.Evaluator) error {
	if r.condition != nil {
		return nil
	}

	if ev == nil {
		ev = expr.NewEvaluator()
	}

	c, err := ev.Compile(r.When)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.When, err)
	}

	r.condition = c

	return nil
}

// Condition returns the compiled condition, or nil before [Rule.Compile].
func (r *Rule) Condition() *expr.Expression {
	return r.condition
}

func (r *Rule) String() string {
	return fmt.Sprintf("when %s", r.When)
}
