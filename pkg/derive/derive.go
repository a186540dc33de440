package derive

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/cel-go/cel"

	"github.com/macropower/dictamen/pkg/expr"
)

// Variable is a named CEL expression whose result is added to the context.
type Variable struct {
	program cel.Program // Compiled Expr.

	// Name is the context key the result is stored under.
	Name string `json:"name" jsonschema:"title=Name" validate:"required,identifier" yaml:"name"`
	// Expr is a CEL expression over `data`.
	Expr string `json:"expr" jsonschema:"title=CEL Expression" validate:"required" yaml:"expr"`
}

// Compile compiles the variable's expression in env.
func (v *Variable) Compile(env *Environment) error {
	if v.program != nil {
		return nil
	}

	program, err := env.Compile(v.Expr)
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}

	v.program = program

	return nil
}

// Deriver evaluates an ordered list of variables. Each variable sees the
// results of the ones before it.
type Deriver struct {
	vars []*Variable
}

// New compiles vars and returns a [Deriver] for them.
func New(env *Environment, vars ...*Variable) (*Deriver, error) {
	for _, v := range vars {
		if err := v.Compile(env); err != nil {
			return nil, err
		}
	}

	return &Deriver{vars: vars}, nil
}

// Apply returns a copy of ctx extended with every derived variable. A
// variable whose evaluation fails is set to null; the failures are joined in
// the returned error, which does not invalidate the returned context.
func (d *Deriver) Apply(ctx expr.Context) (expr.Context, error) {
	out := maps.Clone(ctx)
	if out == nil {
		out = expr.Context{}
	}

	var errs []error

	for _, v := range d.vars {
		result, _, err := v.program.Eval(map[string]any{
			"data": ConvertToCELValue(map[string]any(out)),
		})
		if err != nil {
			slog.Warn("derived variable evaluated to null",
				slog.String("name", v.Name),
				slog.Any("err", err),
			)

			errs = append(errs, fmt.Errorf("variable %q: %w", v.Name, err))
			out[v.Name] = nil

			continue
		}

		out[v.Name] = ConvertFromCELValue(result)
	}

	return out, errors.Join(errs...)
}
