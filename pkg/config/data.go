package config

import (
	"errors"
	"fmt"

	"github.com/macropower/dictamen/api"
	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/yaml"
)

// ErrNotMapping is returned when form data is not a mapping at the top level.
var ErrNotMapping = errors.New("form data must be a mapping")

// LoadData reads form data from a YAML or JSON file, or stdin for "-".
// An empty document yields an empty context.
func LoadData(path string) (expr.Context, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	ctx, err := ParseData(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return ctx, nil
}

// ParseData decodes form data from YAML or JSON.
func ParseData(data []byte) (expr.Context, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode form data: %w", err)
	}

	switch v := doc.(type) {
	case nil:
		return expr.Context{}, nil
	case map[string]any:
		return expr.Context(v), nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrNotMapping, doc)
	}
}

// FindReport returns the report definition closest to start, searching its
// directory and then every parent for one of [reports.FileNames]. It returns
// [ErrNoReports] when there is none.
func FindReport(start string) (string, error) {
	path, err := api.FindConfigFile(start, reports.FileNames)
	if err != nil {
		return "", fmt.Errorf("find report definition: %w", err)
	}

	if path == "" {
		return "", fmt.Errorf("find report definition: %w", ErrNoReports)
	}

	return path, nil
}
