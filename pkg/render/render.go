// Package render renders rule templates with pongo2, a Django/Jinja-style
// template engine. Templates support {{ variable }} interpolation, filters, and
// {% if %} / {% for %} blocks. Tags that load other files are disabled.
package render

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/macropower/dictamen/pkg/expr"
)

var (
	// Context keys pongo2 accepts as variable names.
	identifier = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// Tags that read other files.
	bannedTags = []string{"include", "extends", "import", "ssi"}
)

// Engine compiles and renders templates. Compiled templates are cached by
// source text. An Engine is safe for concurrent use.
type Engine struct {
	set        *pongo2.TemplateSet
	templates  sync.Map // map[string]*pongo2.Template.
	autoescape bool
}

// EngineOpt configures an [Engine].
type EngineOpt func(*Engine)

// WithAutoescape enables HTML escaping of interpolated values.
func WithAutoescape(enabled bool) EngineOpt {
	return func(e *Engine) {
		e.autoescape = enabled
	}
}

// New creates a new [Engine].
func New(opts ...EngineOpt) *Engine {
	e := &Engine{
		set: pongo2.NewSet("dictamen", pongo2.MustNewLocalFileSystemLoader("")),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, tag := range bannedTags {
		// Only fails for unknown tags or a set that is already in use.
		if err := e.set.BanTag(tag); err != nil {
			panic(fmt.Errorf("ban template tag %q: %w", tag, err))
		}
	}

	return e
}

// Compile parses a template, caching the result.
func (e *Engine) Compile(template string) (*pongo2.Template, error) {
	if tpl, ok := e.templates.Load(template); ok {
		t, _ := tpl.(*pongo2.Template)

		return t, nil
	}

	src := template
	if !e.autoescape {
		src = "{% autoescape off %}" + template + "{% endautoescape %}"
	}

	tpl, err := e.set.FromString(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	e.templates.Store(template, tpl)

	return tpl, nil
}

// Render renders template against ctx. Context keys that are not valid
// template identifiers are not visible to the template.
func (e *Engine) Render(template string, ctx expr.Context) (string, error) {
	tpl, err := e.Compile(template)
	if err != nil {
		return "", err
	}

	out, err := tpl.Execute(templateContext(ctx))
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return out, nil
}

func templateContext(ctx expr.Context) pongo2.Context {
	pc := make(pongo2.Context, len(ctx))

	for k, v := range ctx {
		if !identifier.MatchString(k) {
			slog.Debug("skip context key that is not a template identifier", slog.String("key", k))

			continue
		}

		pc[k] = v
	}

	return pc
}
