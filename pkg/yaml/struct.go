package yaml

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StructValidator validates decoded values using their `validate` struct
// tags. Field names in errors follow the `json` tags, so failures can be
// located in the source document.
//
// In addition to the validator's built-in tags, `identifier` requires a
// string usable as a variable name.
type StructValidator struct {
	v *validator.Validate
}

// NewStructValidator creates a new [StructValidator].
func NewStructValidator() *StructValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			return f.Name
		}

		return name
	})

	err := v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifier.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}

	return &StructValidator{v: v}
}

// Validate validates v, which must be a struct or a pointer to one. It
// reports the first failing field as an [*Error].
func (s *StructValidator) Validate(v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("struct validation: %w", err)
	}

	fe := fieldErrs[0]

	return &Error{
		Err:  errors.New(describe(fe)),
		Path: buildPathFromNamespace(fe.Namespace()),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "min":
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "identifier":
		return fmt.Sprintf("%q is not a valid identifier", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}

	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
	}

	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// buildPathFromNamespace converts a validator namespace such as
// Report.blocks[0].rules[1].when to a [yaml.Path]. The leading type name is
// dropped.
func buildPathFromNamespace(ns string) *yaml.Path {
	current := NewPathBuilder().Root()

	parts := strings.Split(ns, ".")
	for _, part := range parts[1:] {
		name, rest, _ := strings.Cut(part, "[")
		if name != "" {
			current = current.Child(name)
		}

		for rest != "" {
			var key string

			key, rest, _ = strings.Cut(rest, "]")
			rest = strings.TrimPrefix(rest, "[")

			index, err := strconv.ParseUint(key, 10, 0)
			if err == nil {
				current = current.Index(uint(index))
			} else {
				current = current.Child(key)
			}
		}
	}

	return current.Build()
}
