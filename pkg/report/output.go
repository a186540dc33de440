package report

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/macropower/dictamen/pkg/expr"
)

// Output is the result of a build.
type Output struct {
	// Blocks maps block IDs to their final text.
	Blocks map[string]string `json:"blocks"`
	// Context is the data passed to the document renderer: the form data,
	// the derived variables and the block texts.
	Context expr.Context `json:"context"`
	// Report is the name of the report definition.
	Report string `json:"report"`
	// Order lists the block IDs in definition order.
	Order []string `json:"order"`
	// Diagnostics are the contained failures of the build.
	Diagnostics []*Diagnostic `json:"diagnostics,omitempty"`
	// Count drives the plural markers.
	Count int `json:"count"`
	// ID identifies the build in logs and traces.
	ID uuid.UUID `json:"id"`
}

// Text joins the text of the given blocks, or of all blocks, in definition
// order. Empty blocks are skipped.
func (o *Output) Text(ids ...string) string {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}

	var parts []string

	for _, id := range o.Order {
		if len(want) > 0 && !want[id] {
			continue
		}

		if text := o.Blocks[id]; text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n")
}

// Err joins the errors of all diagnostics, or returns nil.
func (o *Output) Err() error {
	errs := make([]error, len(o.Diagnostics))
	for i, d := range o.Diagnostics {
		errs[i] = d.Err
	}

	return errors.Join(errs...)
}

// Diagnostic is a failure that did not stop the build.
type Diagnostic struct {
	Err error `json:"-"`
	// Block is empty for derived variable failures.
	Block string `json:"block,omitempty"`
	// Message describes the failure.
	Message string `json:"message"`
	// Instance is the one-based instance of a repeated block, or zero.
	Instance int `json:"instance,omitempty"`
}

func newDiagnostic(block string, instance int, err error) *Diagnostic {
	return &Diagnostic{
		Err:      err,
		Block:    block,
		Instance: instance,
		Message:  err.Error(),
	}
}
