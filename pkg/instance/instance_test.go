package instance_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/instance"
	"github.com/macropower/dictamen/pkg/rule"
)

// substitute replaces {{name}} with the string value of name. It fails when
// the context sets fail to true.
var substitute = rule.RendererFunc(func(template string, ctx expr.Context) (string, error) {
	if ctx["fail"] == true {
		return "", errors.New("render failed")
	}

	pairs := make([]string, 0, 2*len(ctx))
	for k, v := range ctx {
		s, _ := v.(string)
		pairs = append(pairs, "{{"+k+"}}", s)
	}

	return strings.NewReplacer(pairs...).Replace(template), nil
})

func newExpander(opts ...instance.ExpanderOpt) (*instance.Expander, *rule.Resolver) {
	r := rule.NewResolver(substitute)

	return instance.NewExpander(r, opts...), r
}

func TestExpandInstances(t *testing.T) {
	t.Parallel()

	b := rule.NewBlock("fundamento", rule.MustNew("true", "Nota {{numero_nota}}"))
	e, _ := newExpander(instance.WithMaxCount(10))

	base := expr.Context{
		"issue_1__numero_nota": "10",
		"issue_2__numero_nota": "20",
		"issue_3__numero_nota": "30",
	}

	exp, err := e.ExpandInstances(b, base, instance.Config{Prefix: "issue", Count: 3})
	require.NoError(t, err)
	assert.Equal(t, "Nota 10\n\nNota 20\n\nNota 30", exp.Text)
	assert.Equal(t, []string{"Nota 10", "Nota 20", "Nota 30"}, exp.Instances)
	assert.Empty(t, exp.RenderErrors)

	// The caller's context is untouched.
	assert.Len(t, base, 3)
}

func TestExpandInstancesCountField(t *testing.T) {
	t.Parallel()

	b := rule.NewBlock("fundamento",
		rule.MustNew("tipo == 'incorreccion'", "Incorrección en nota {{numero_nota}} ({{entidad}})"),
		rule.MustNew("true", "Limitación en nota {{numero_nota}} ({{entidad}})"),
	)
	e, _ := newExpander(instance.WithMaxCount(10))

	base := expr.Context{
		"num_salvedades":          "2",
		"entidad":                 "ACME",
		"numero_nota":             "1",
		"salvedad_1__tipo":        "incorreccion",
		"salvedad_1__numero_nota": "4",
		"salvedad_2__numero_nota": "9",
		"salvedad_3__numero_nota": "99",
	}

	exp, err := e.ExpandInstances(b, base, instance.Config{CountField: "num_salvedades", Prefix: "salvedad"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Incorrección en nota 4 (ACME)",
		"Limitación en nota 9 (ACME)",
	}, exp.Instances)
}

func TestExpandSingleInstanceMatchesResolveBlock(t *testing.T) {
	t.Parallel()

	b := rule.NewBlock("fundamento",
		rule.MustNew("importe", "  Importe {{importe}}  "),
		rule.MustNew("true", "Sin importe"),
	)
	e, r := newExpander()

	for _, base := range []expr.Context{
		{},
		{"importe": "100"},
		{"importe": "100", "issue_2__importe": "200"},
	} {
		want, err := r.ResolveBlock(b, base)
		require.NoError(t, err)

		got, err := e.ExpandInstances(b, base, instance.Config{Prefix: "issue", Count: 1})
		require.NoError(t, err)
		assert.Equal(t, want, got.Text)

		got, err = e.Expand(b, base, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got.Text)
	}
}

func TestExpandErrors(t *testing.T) {
	t.Parallel()

	t.Run("count out of range", func(t *testing.T) {
		t.Parallel()

		b := rule.NewBlock("x", rule.MustNew("true", "x"))
		e, _ := newExpander(instance.WithMaxCount(10))

		_, err := e.ExpandInstances(b, expr.Context{"n": 11}, instance.Config{CountField: "n", Prefix: "p"})
		require.ErrorIs(t, err, instance.ErrCountOutOfRange)

		var rangeErr *instance.CountOutOfRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, 11, rangeErr.Count)
		assert.Equal(t, 10, rangeErr.Max)
		assert.Equal(t, "n", rangeErr.Field)

		_, err = e.Expand(b, nil, make(instance.Instances, 11))
		require.ErrorIs(t, err, instance.ErrCountOutOfRange)
	})

	t.Run("unresolved block", func(t *testing.T) {
		t.Parallel()

		b := rule.NewBlock("x", rule.MustNew("tipo == 'a'", "x"))
		e, _ := newExpander()

		_, err := e.Expand(b, nil, instance.Instances{{"tipo": "a"}, {"tipo": "b"}})
		require.ErrorIs(t, err, rule.ErrUnresolvedBlock)
		assert.Contains(t, err.Error(), "instance 2")
	})

	t.Run("render failure is per instance", func(t *testing.T) {
		t.Parallel()

		b := rule.NewBlock("x", rule.MustNew("true", "Nota {{n}}"))
		e, _ := newExpander()

		exp, err := e.Expand(b, nil, instance.Instances{{"n": "1"}, {"n": "2", "fail": true}, {"n": "3"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Nota 1", "", "Nota 3"}, exp.Instances)
		assert.Equal(t, "Nota 1\n\n\n\nNota 3", exp.Text)
		require.Len(t, exp.RenderErrors, 1)
		assert.Equal(t, 2, exp.RenderErrors[0].Instance)
		require.ErrorIs(t, exp.RenderErrors[0], rule.ErrRender)
		assert.Contains(t, exp.RenderErrors[0].Error(), "instance 2")
	})
}

func TestReadCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ctx     expr.Context
		name    string
		want    int
		wantErr bool
	}{
		{name: "missing", ctx: expr.Context{}, want: 1},
		{name: "null", ctx: expr.Context{"n": nil}, want: 1},
		{name: "zero", ctx: expr.Context{"n": 0}, want: 1},
		{name: "negative", ctx: expr.Context{"n": -3}, want: 1},
		{name: "int", ctx: expr.Context{"n": 4}, want: 4},
		{name: "int64", ctx: expr.Context{"n": int64(4)}, want: 4},
		{name: "float", ctx: expr.Context{"n": 3.0}, want: 3},
		{name: "string", ctx: expr.Context{"n": " 7 "}, want: 7},
		{name: "garbage", ctx: expr.Context{"n": "muchas"}, want: 1},
		{name: "bool", ctx: expr.Context{"n": true}, want: 1},
		{name: "at max", ctx: expr.Context{"n": 10}, want: 10},
		{name: "above max", ctx: expr.Context{"n": "11"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := instance.ReadCount(tt.ctx, "n", 10)
			if tt.wantErr {
				require.ErrorIs(t, err, instance.ErrCountOutOfRange)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	n, err := instance.ReadCount(expr.Context{"n": 500}, "n", 0)
	require.NoError(t, err)
	assert.Equal(t, 500, n)
}

func TestFromPrefixed(t *testing.T) {
	t.Parallel()

	ctx := expr.Context{
		"entidad":          "ACME",
		"numero_nota":      "0",
		"salvedad_1__nota": "1",
		"salvedad_2__nota": "2",
		"salvedad_2__tipo": "limitacion",
		"salvedad_9__nota": "9",
		"salvedad_x__nota": "x",
		"salvedad_1__":     "empty field",
		"otro_1__nota":     "otro",
	}

	shared, instances := instance.FromPrefixed(ctx, "salvedad", 2)

	assert.Equal(t, expr.Context{
		"entidad":          "ACME",
		"numero_nota":      "0",
		"salvedad_x__nota": "x",
		"salvedad_1__":     "empty field",
		"otro_1__nota":     "otro",
	}, shared)
	assert.Equal(t, instance.Instances{
		{"nota": "1"},
		{"nota": "2", "tipo": "limitacion"},
	}, instances)

	second := instances.Context(shared, 1)
	assert.Equal(t, "2", second["nota"])
	assert.Equal(t, "ACME", second["entidad"])

	for i := range 2 {
		assert.NotContains(t, instances.Context(shared, i), "salvedad_9__nota")
	}

	beyond := instances.Context(shared, 5)
	assert.Equal(t, expr.Context(shared), beyond)
	assert.Len(t, ctx, 9)
}

func TestExpandInstancesExcludesOtherIndices(t *testing.T) {
	t.Parallel()

	// The template reports every instance key that reaches the context.
	leaked := rule.RendererFunc(func(_ string, ctx expr.Context) (string, error) {
		var keys []string
		for k := range ctx {
			if strings.HasPrefix(k, "issue_") {
				keys = append(keys, k)
			}
		}

		return "nota " + fmt.Sprint(ctx["nota"]) + strings.Join(keys, ","), nil
	})

	b := rule.NewBlock("fundamento", rule.MustNew("true", "x"))
	e := instance.NewExpander(rule.NewResolver(leaked), instance.WithMaxCount(10))

	base := expr.Context{
		"issue_0__nota": "0",
		"issue_1__nota": "1",
		"issue_2__nota": "2",
		"issue_3__nota": "3",
	}

	exp, err := e.ExpandInstances(b, base, instance.Config{Prefix: "issue", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"nota 1", "nota 2"}, exp.Instances)
}
