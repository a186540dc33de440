package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// Decoder decodes YAML documents, converting syntax and type errors into
// [*Error]s that point at the offending token.
type Decoder struct {
	d *yaml.Decoder
}

// NewDecoder creates a new [Decoder] reading from r. Duplicate keys are
// rejected unless opts say otherwise.
func NewDecoder(r io.Reader, opts ...yaml.DecodeOption) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, opts...),
	}
}

// Decode decodes the next document into v.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:   errors.New(yamlErr.GetMessage()),
			Token: yamlErr.GetToken(),
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// Unmarshal decodes a single document from data into v. Errors carry data as
// their source.
func Unmarshal(data []byte, v any, opts ...yaml.DecodeOption) error {
	err := NewDecoder(bytes.NewReader(data), opts...).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var yamlErr *Error
	if errors.As(err, &yamlErr) {
		yamlErr.Source = data
	}

	return err
}
