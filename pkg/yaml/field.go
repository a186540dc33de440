package yaml

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/parser"
)

// SetRootField sets key in the root mapping of the YAML document data to v
// and returns the updated document. An existing key keeps its position and
// comments; a missing key is appended to the mapping.
func SetRootField(data []byte, key string, v any) ([]byte, error) {
	file, err := parser.ParseBytes(data, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	fieldPath := NewPathBuilder().Root().Child(key).Build()

	_, err = fieldPath.FilterFile(file)

	switch {
	case err == nil:
		node, err := yaml.ValueToNode(v, DefaultEncoderOptions...)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", key, err)
		}

		err = fieldPath.ReplaceWithNode(file, node)
		if err != nil {
			return nil, fmt.Errorf("replace %s: %w", key, err)
		}

	case errors.Is(err, yaml.ErrNotFoundNode):
		node, err := yaml.ValueToNode(map[string]any{key: v}, DefaultEncoderOptions...)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", key, err)
		}

		err = NewPathBuilder().Root().Build().MergeFromNode(file, node)
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", key, err)
		}

	default:
		return nil, fmt.Errorf("find %s: %w", key, err)
	}

	return []byte(file.String()), nil
}
