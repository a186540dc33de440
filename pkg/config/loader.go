package config

import (
	"github.com/macropower/dictamen/api"
	"github.com/macropower/dictamen/api/v1beta1"
	"github.com/macropower/dictamen/pkg/yaml"
)

// Validator validates configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt[T v1beta1.Object] func(*loaderOptions[T])

type loaderOptions[T v1beta1.Object] struct {
	validator Validator
	check     func(T) error
	color     bool
}

// WithValidator sets a custom schema validator.
func WithValidator[T v1beta1.Object](v Validator) LoaderOpt[T] {
	return func(o *loaderOptions[T]) {
		o.validator = v
	}
}

// WithCheck runs check on every loaded object after defaults are applied.
func WithCheck[T v1beta1.Object](check func(T) error) LoaderOpt[T] {
	return func(o *loaderOptions[T]) {
		o.check = check
	}
}

// WithColor colorizes source excerpts in errors.
func WithColor[T v1beta1.Object](color bool) LoaderOpt[T] {
	return func(o *loaderOptions[T]) {
		o.color = color
	}
}

// Loader is a generic configuration loader that handles validation,
// YAML parsing, and error formatting for any config type T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	check     func(T) error
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] from byte data.
// The newFunc parameter is the constructor for type T (e.g., reports.New).
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt[T],
) *Loader[T] {
	options := &loaderOptions[T]{
		validator: defaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		check:     options.check,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithColor(options.color),
		),
	}
}

// NewLoaderFromFile creates a [Loader] from a file path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt[T],
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate validates the configuration data against the schema.
func (l *Loader[T]) Validate() error {
	var doc any

	err := yaml.Unmarshal(l.data, &doc)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator != nil {
		err = l.validator.Validate(doc)
		if err != nil {
			return l.yamlError.Wrap(err)
		}
	}

	return nil
}

// Load parses the configuration, applies defaults and runs the check.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	var zero T

	cfg := l.newFunc()

	err := yaml.Unmarshal(l.data, cfg)
	if err != nil {
		return zero, l.yamlError.Wrap(err)
	}

	cfg.EnsureDefaults()

	if l.check != nil {
		err = l.check(cfg)
		if err != nil {
			return zero, l.yamlError.Wrap(err)
		}
	}

	return cfg, nil
}
