package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/macropower/dictamen/api"
	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/derive"
	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/render"
)

// ErrNoReports is returned when no report definition matches the given paths.
var ErrNoReports = errors.New("no report definitions found")

// ReportOpt configures report loading.
type ReportOpt func(*reportOptions)

type reportOptions struct {
	evaluator *expr.Evaluator
	env       *derive.Environment
	engine    *render.Engine
	color     bool
}

// WithReportColor colorizes source excerpts in report errors.
func WithReportColor(color bool) ReportOpt {
	return func(o *reportOptions) {
		o.color = color
	}
}

// WithReportEvaluator compiles conditions with ev.
func WithReportEvaluator(ev *expr.Evaluator) ReportOpt {
	return func(o *reportOptions) {
		o.evaluator = ev
	}
}

// WithReportEngine compiles templates with engine.
func WithReportEngine(engine *render.Engine) ReportOpt {
	return func(o *reportOptions) {
		o.engine = engine
	}
}

// WithReportEnvironment compiles derived variables in env.
func WithReportEnvironment(env *derive.Environment) ReportOpt {
	return func(o *reportOptions) {
		o.env = env
	}
}

func newReportOptions(opts []ReportOpt) *reportOptions {
	o := &reportOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.evaluator == nil {
		o.evaluator = expr.NewEvaluator()
	}

	if o.engine == nil {
		o.engine = render.New()
	}

	if o.env == nil {
		o.env = derive.MustNewEnvironment()
	}

	return o
}

// LoadReportBytes decodes, validates and compiles a single report definition.
// Errors are annotated with the offending lines of data.
func LoadReportBytes(data []byte, opts ...ReportOpt) (*reports.Report, error) {
	return loadReport(data, newReportOptions(opts))
}

func loadReport(data []byte, o *reportOptions) (*reports.Report, error) {
	loader := NewLoaderFromBytes(data, reports.New, reports.DefaultValidator,
		WithColor[*reports.Report](o.color),
		WithCheck(func(r *reports.Report) error {
			err := r.Validate()
			if err != nil {
				return err //nolint:wrapcheck // Located error.
			}

			return r.Compile(o.evaluator, o.env, o.engine) //nolint:wrapcheck // Located error.
		}),
	)

	err := loader.Validate()
	if err != nil {
		return nil, err
	}

	return loader.Load()
}

// LoadReports loads every report definition matching paths, in argument
// order, and merges them into one. Paths may be glob patterns; matches of a
// single pattern are loaded in lexical order. A path of "-" reads stdin.
func LoadReports(paths []string, opts ...ReportOpt) (*reports.Report, error) {
	o := newReportOptions(opts)

	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoReports
	}

	var merged *reports.Report

	for _, path := range files {
		data, err := api.ReadFile(path)
		if err != nil {
			return nil, err //nolint:wrapcheck // Return the original error.
		}

		r, err := loadReport(data, o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if merged == nil {
			merged = r

			continue
		}

		err = merged.Merge(r)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}

	// Merging may create new name clashes between variables and blocks.
	if len(files) > 1 {
		err = merged.Validate()
		if err != nil {
			return nil, fmt.Errorf("merged report: %w", err)
		}
	}

	return merged, nil
}

func expandPaths(paths []string) ([]string, error) {
	var files []string

	for _, p := range paths {
		if p == api.Stdin {
			files = append(files, p)

			continue
		}

		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", p, err)
		}

		if len(matches) == 0 {
			// Let the read report the missing file.
			files = append(files, p)

			continue
		}

		sort.Strings(matches)
		files = append(files, matches...)
	}

	return files, nil
}
