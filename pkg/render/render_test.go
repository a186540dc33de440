package render_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/render"
	"github.com/macropower/dictamen/pkg/rule"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ctx      expr.Context
		name     string
		template string
		want     string
	}{
		{
			name:     "interpolation",
			template: "Nota {{numero_nota}}",
			ctx:      expr.Context{"numero_nota": "10"},
			want:     "Nota 10",
		},
		{
			name:     "missing variable",
			template: "Nota {{numero_nota}}.",
			want:     "Nota .",
		},
		{
			name:     "conditional",
			template: "{% if importe > 1000 %}material{% else %}menor{% endif %}",
			ctx:      expr.Context{"importe": 2500},
			want:     "material",
		},
		{
			name:     "loop",
			template: "{% for n in notas %}{{ n }}{% if not forloop.Last %}, {% endif %}{% endfor %}",
			ctx:      expr.Context{"notas": []string{"3", "7"}},
			want:     "3, 7",
		},
		{
			name:     "no escaping",
			template: "{{ entidad }}",
			ctx:      expr.Context{"entidad": "Pérez & Hijos <S.A.>"},
			want:     "Pérez & Hijos <S.A.>",
		},
		{
			name:     "non-identifier keys are hidden",
			template: "{{ a }}",
			ctx:      expr.Context{"a": "x", "número": "y"},
			want:     "x",
		},
	}

	e := render.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.Render(tt.template, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderAutoescape(t *testing.T) {
	t.Parallel()

	e := render.New(render.WithAutoescape(true))

	got, err := e.Render("{{ v }}", expr.Context{"v": "<b>"})
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;", got)
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	e := render.New()

	_, err := e.Render("{% if %}", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse template")

	_, err = e.Compile("{{ unterminated")
	require.Error(t, err)
}

func TestCompileCache(t *testing.T) {
	t.Parallel()

	e := render.New()

	first, err := e.Compile("Hola {{ nombre }}")
	require.NoError(t, err)

	second, err := e.Compile("Hola {{ nombre }}")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestEngineIsRenderer(t *testing.T) {
	t.Parallel()

	var r rule.Renderer = render.New()

	b := rule.NewBlock("nota", rule.MustNew("true", "  Nota {{ numero_nota }}  "))

	got, err := rule.NewResolver(r).ResolveBlock(b, expr.Context{"numero_nota": 4})
	require.NoError(t, err)
	assert.Equal(t, "Nota 4", got)
}

func TestRenderBannedTags(t *testing.T) {
	t.Parallel()

	e := render.New()

	_, err := e.Render(`{% include "/etc/hostname" %}`, nil)
	require.Error(t, err)
}
