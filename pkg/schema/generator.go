// Package schema generates JSON schemas for configuration kinds.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generator reflects a JSON schema from a Go value.
type Generator struct {
	reflector *jsonschema.Reflector
	v         any
	base      string
	paths     []string
}

// GeneratorOpt configures a [Generator].
type GeneratorOpt func(*Generator)

// WithGoComments uses the doc comments of the packages under paths, relative
// to the working directory, as schema descriptions. The module import path is
// base.
func WithGoComments(base string, paths ...string) GeneratorOpt {
	return func(g *Generator) {
		g.base = base
		g.paths = append(g.paths, paths...)
	}
}

// NewGenerator creates a [Generator] for v.
func NewGenerator(v any, opts ...GeneratorOpt) *Generator {
	g := &Generator{
		v: v,
		reflector: &jsonschema.Reflector{
			// Empty values are filled in by EnsureDefaults.
			RequiredFromJSONSchemaTags: false,
		},
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate returns the indented JSON schema.
func (g *Generator) Generate() ([]byte, error) {
	for _, path := range g.paths {
		err := g.reflector.AddGoComments(g.base, path)
		if err != nil {
			return nil, fmt.Errorf("read comments from %s: %w", path, err)
		}
	}

	s := g.reflector.Reflect(g.v)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
