package derive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/pkg/derive"
	"github.com/macropower/dictamen/pkg/expr"
)

func TestDeriverApply(t *testing.T) {
	t.Parallel()

	env, err := derive.NewEnvironment()
	require.NoError(t, err)

	d, err := derive.New(env,
		&derive.Variable{Name: "n", Expr: `int(get(data, "num_salvedades", 1))`},
		&derive.Variable{Name: "n_texto", Expr: `plural(data.n, "salvedad", "salvedades")`},
		&derive.Variable{Name: "entidad_upper", Expr: `data.nombre_entidad.upperAscii()`},
		&derive.Variable{Name: "es_eip", Expr: `get(data, "tipo_entidad", "") == "EIP"`},
		&derive.Variable{Name: "notas", Expr: `[data.n, 2.5, "x"]`},
		&derive.Variable{Name: "resumen", Expr: `{"n": data.n}`},
	)
	require.NoError(t, err)

	in := expr.Context{
		"num_salvedades": uint64(3),
		"nombre_entidad": "acme s.a.",
	}

	got, err := d.Apply(in)
	require.NoError(t, err)

	assert.Equal(t, int64(3), got["n"])
	assert.Equal(t, "salvedades", got["n_texto"])
	assert.Equal(t, "ACME S.A.", got["entidad_upper"])
	assert.Equal(t, false, got["es_eip"])
	assert.Equal(t, []any{int64(3), 2.5, "x"}, got["notas"])
	assert.Equal(t, map[string]any{"n": int64(3)}, got["resumen"])

	// The input context is not modified.
	assert.Len(t, in, 2)
}

func TestDeriverDefaults(t *testing.T) {
	t.Parallel()

	env := derive.MustNewEnvironment()

	d, err := derive.New(env,
		&derive.Variable{Name: "n", Expr: `int(get(data, "num_salvedades", 1))`},
		&derive.Variable{Name: "texto", Expr: `plural(data.n, "salvedad", "salvedades")`},
	)
	require.NoError(t, err)

	got, err := d.Apply(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got["n"])
	assert.Equal(t, "salvedad", got["texto"])

	got, err = d.Apply(expr.Context{"num_salvedades": nil})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got["n"])
}

func TestDeriverEvalError(t *testing.T) {
	t.Parallel()

	env := derive.MustNewEnvironment()

	d, err := derive.New(env,
		&derive.Variable{Name: "missing", Expr: `data.no_such_field`},
		&derive.Variable{Name: "ok", Expr: `"fine"`},
	)
	require.NoError(t, err)

	got, err := d.Apply(expr.Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "missing"`)

	assert.Contains(t, got, "missing")
	assert.Nil(t, got["missing"])
	assert.Equal(t, "fine", got["ok"])
}

func TestCompileError(t *testing.T) {
	t.Parallel()

	env := derive.MustNewEnvironment()

	_, err := derive.New(env, &derive.Variable{Name: "bad", Expr: `data.x +`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `variable "bad"`)

	_, err = derive.New(env, &derive.Variable{Name: "bad", Expr: `undefinedFn(1)`})
	require.Error(t, err)
}

func TestConvertToCELValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input any
		want  any
		name  string
	}{
		{name: "nil", input: nil, want: nil},
		{name: "bool", input: true, want: true},
		{name: "int", input: 7, want: int64(7)},
		{name: "uint64", input: uint64(7), want: int64(7)},
		{name: "float", input: 1.5, want: 1.5},
		{name: "string", input: "x", want: "x"},
		{name: "strings", input: []string{"a"}, want: []any{"a"}},
		{name: "list", input: []any{1, "a"}, want: []any{int64(1), "a"}},
		{name: "map", input: map[string]any{"k": []any{true}}, want: map[string]any{"k": []any{true}}},
		{name: "unsupported", input: struct{}{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := derive.ConvertFromCELValue(derive.ConvertToCELValue(tt.input))
			assert.Equal(t, tt.want, got)
		})
	}
}
