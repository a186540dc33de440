// Package reports provides the Report configuration kind.
//
// A Report declares the conditional text blocks of a document, the derived
// variables computed from form data before the blocks are resolved, and how
// repeated items and plural markers are handled.
package reports

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/dictamen/api"
	"github.com/macropower/dictamen/api/v1beta1"
	"github.com/macropower/dictamen/pkg/derive"
	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/instance"
	"github.com/macropower/dictamen/pkg/plural"
	"github.com/macropower/dictamen/pkg/render"
	"github.com/macropower/dictamen/pkg/rule"
	"github.com/macropower/dictamen/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/report/main.go -root ../../.. -o reports.v1beta1.json

// DefaultMaxInstances bounds every instance count unless a report sets
// maxInstances.
const DefaultMaxInstances = 10

var (
	//go:embed report.yaml
	defaultReportYAML []byte

	//go:embed reports.v1beta1.json
	reportSchemaJSON []byte

	// ValidKinds contains the valid kind values for report definitions.
	ValidKinds = []string{"Report"}

	// FileNames are the report definition file names searched for when no
	// definition is given explicitly.
	FileNames = []string{"dictamen.yaml", "report.yaml"}

	// DefaultValidator validates report definitions against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/reports.v1beta1.json", reportSchemaJSON)

	structValidator = yaml.NewStructValidator()

	// Compile-time interface checks.
	_ v1beta1.Object = (*Report)(nil)
)

// Repeat expands a block once per repeated item.
//
// The instance count is read from the Count field of the context. Instance
// fields are read from keys of the form <prefix>_<i>__<field>.
type Repeat struct {
	// Count names the context field holding the number of instances.
	Count string `json:"count" jsonschema:"title=Count Field" validate:"required,identifier"`
	// Prefix is the key prefix of instance fields.
	Prefix string `json:"prefix,omitempty" jsonschema:"title=Prefix" validate:"required_without=PrefixFrom"`
	// PrefixFrom names a context field holding the prefix. It takes
	// precedence over Prefix when the field is a non-empty string.
	PrefixFrom string `json:"prefixFrom,omitempty" jsonschema:"title=Prefix Field"`
}

// Config returns the expansion settings for ctx.
func (r *Repeat) Config(ctx expr.Context) instance.Config {
	prefix := r.Prefix
	if r.PrefixFrom != "" {
		if s, ok := ctx[r.PrefixFrom].(string); ok && s != "" {
			prefix = s
		}
	}

	return instance.Config{CountField: r.Count, Prefix: prefix}
}

// Block is a conditional text slot of the report.
type Block struct {
	block *rule.Block

	// Repeat expands the block once per repeated item.
	Repeat *Repeat `json:"repeat,omitempty" jsonschema:"title=Repeat"`
	// ID identifies the block. Its resolved text is stored under this name.
	ID string `json:"id" jsonschema:"title=Block ID" validate:"required,identifier"`
	// Description documents the block.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// Rules are evaluated in order; the first match wins. End the list with a
	// rule without a condition to guarantee the block resolves.
	Rules []*rule.Rule `json:"rules" jsonschema:"title=Rules,minItems=1" validate:"required,min=1,dive,required"`
}

// EnsureDefaults initializes rule conditions.
func (b *Block) EnsureDefaults() {
	for _, r := range b.Rules {
		r.EnsureDefaults()
	}
}

// RuleBlock returns the block as a [*rule.Block].
func (b *Block) RuleBlock() *rule.Block {
	if b.block == nil {
		b.block = &rule.Block{ID: b.ID, Description: b.Description, Rules: b.Rules}
	}

	return b.block
}

// Report is a report definition.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Report struct {
	v1beta1.TypeMeta `json:",inline"`

	// Name identifies the report.
	Name string `json:"name" jsonschema:"title=Name" validate:"required"`
	// Description documents the report.
	Description string `json:"description,omitempty" jsonschema:"title=Description"`
	// PluralCount names the context field holding the count used to rewrite
	// plural markers in the resolved text. Without it, the singular is used.
	PluralCount string `json:"pluralCount,omitempty" jsonschema:"title=Plural Count Field" validate:"omitempty,identifier"`
	// Markers replace the default plural markers.
	Markers []plural.Marker `json:"markers,omitempty" jsonschema:"title=Plural Markers" validate:"dive"`
	// Variables are derived from the form data before blocks are resolved,
	// in order.
	Variables []*derive.Variable `json:"variables,omitempty" jsonschema:"title=Derived Variables" validate:"dive,required"`
	// Blocks are the conditional text slots of the report.
	Blocks []*Block `json:"blocks" jsonschema:"title=Blocks" validate:"required,min=1,dive,required"`
	// MaxInstances bounds every instance count. Defaults to 10.
	MaxInstances int `json:"maxInstances,omitempty" jsonschema:"title=Max Instances,minimum=1" validate:"gte=0"`

	defaultMaxInstances bool // MaxInstances was unset and holds the default.
}

// New creates a new, empty [Report]. Defaults are applied by
// [Report.EnsureDefaults] once the report has been decoded, so that settings
// left unset can be told apart from settings equal to their default.
func New() *Report {
	return &Report{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       "Report",
		},
	}
}

// EnsureDefaults initializes unset fields to their default values.
func (r *Report) EnsureDefaults() {
	if r.MaxInstances == 0 {
		r.MaxInstances = DefaultMaxInstances
		r.defaultMaxInstances = true
	}

	for _, b := range r.Blocks {
		if b != nil {
			b.EnsureDefaults()
		}
	}
}

// Validate checks the structure of the report. Failures are [*yaml.Error]s
// located in the report document.
func (r *Report) Validate() error {
	err := structValidator.Validate(r)
	if err != nil {
		return err //nolint:wrapcheck // Already a located error.
	}

	names := map[string]string{}

	for i, v := range r.Variables {
		if _, ok := names[v.Name]; ok {
			return located(fmt.Errorf("duplicate variable %q", v.Name), "variables", i, "name")
		}

		names[v.Name] = "variable"
	}

	for i, b := range r.Blocks {
		if kind, ok := names[b.ID]; ok {
			return located(fmt.Errorf("block id %q is already used by a %s", b.ID, kind), "blocks", i, "id")
		}

		names[b.ID] = "block"

		if !b.RuleBlock().HasFallback() {
			slog.Warn("block has no fallback rule and may not resolve",
				slog.String("block", b.ID),
			)
		}
	}

	return nil
}

// Compile compiles every condition with ev, every template with engine and
// every derived variable with env. Failures are [*yaml.Error]s located in
// the report document.
func (r *Report) Compile(ev *expr.Evaluator, env *derive.Environment, engine *render.Engine) error {
	for i, v := range r.Variables {
		err := v.Compile(env)
		if err != nil {
			return located(err, "variables", i, "expr")
		}
	}

	for i, b := range r.Blocks {
		for j, rl := range b.Rules {
			err := rl.Compile(ev)
			if err != nil {
				return located(fmt.Errorf("block %q: %w", b.ID, err), "blocks", i, "rules", j, "when")
			}

			_, err = engine.Compile(rl.Template)
			if err != nil {
				return located(fmt.Errorf("block %q: rule %d: %w", b.ID, j, err), "blocks", i, "rules", j, "template")
			}
		}

		b.block = nil
		b.RuleBlock()
	}

	return nil
}

// Merge appends the variables, blocks and markers of other to r. Scalar
// settings of other win when they are set, even to their default value. A
// block ID defined by both is an error.
func (r *Report) Merge(other *Report) error {
	ids := make(map[string]bool, len(r.Blocks))
	for _, b := range r.Blocks {
		ids[b.ID] = true
	}

	var errs []error

	for _, b := range other.Blocks {
		if ids[b.ID] {
			errs = append(errs, fmt.Errorf("duplicate block id %q", b.ID))

			continue
		}

		r.Blocks = append(r.Blocks, b)
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	r.Variables = append(r.Variables, other.Variables...)
	r.Markers = append(r.Markers, other.Markers...)

	if other.Name != "" {
		r.Name = other.Name
	}

	if other.Description != "" {
		r.Description = other.Description
	}

	if other.PluralCount != "" {
		r.PluralCount = other.PluralCount
	}

	if other.MaxInstances != 0 && !other.defaultMaxInstances {
		r.MaxInstances = other.MaxInstances
		r.defaultMaxInstances = false
	}

	return nil
}

// Block returns the block with the given ID, or nil.
func (r *Report) Block(id string) *Block {
	for _, b := range r.Blocks {
		if b.ID == id {
			return b
		}
	}

	return nil
}

// BlockIDs returns the block IDs in definition order.
func (r *Report) BlockIDs() []string {
	ids := make([]string, len(r.Blocks))
	for i, b := range r.Blocks {
		ids[i] = b.ID
	}

	return ids
}

func (r Report) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the report to YAML.
func (r Report) MarshalYAML() ([]byte, error) {
	type alias Report

	b, err := api.MarshalYAML(alias(r))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	return b, nil
}

// DefaultYAML returns the embedded example report definition.
func DefaultYAML() []byte {
	return defaultReportYAML
}

// SchemaJSON returns the JSON schema for report definitions.
func SchemaJSON() []byte {
	return reportSchemaJSON
}

// WriteDefault writes data, or the embedded example report definition when
// data is nil, to path.
func WriteDefault(path string, data []byte, force bool) error {
	if data == nil {
		data = defaultReportYAML
	}

	err := api.WriteDefaultFile(path, data, force, "report")
	if err != nil {
		return fmt.Errorf("write default report: %w", err)
	}

	return nil
}

// located wraps err in a [*yaml.Error] pointing at the given path, built from
// property names and sequence indexes.
func located(err error, parts ...any) *yaml.Error {
	pb := yaml.NewPathBuilder().Root()

	for _, p := range parts {
		switch p := p.(type) {
		case string:
			pb = pb.Child(p)
		case int:
			pb = pb.Index(uint(p)) //nolint:gosec // Slice indexes are non-negative.
		}
	}

	return yaml.NewError(err, yaml.WithPath(pb.Build()))
}
