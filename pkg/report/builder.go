package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/derive"
	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/instance"
	"github.com/macropower/dictamen/pkg/log"
	"github.com/macropower/dictamen/pkg/plural"
	"github.com/macropower/dictamen/pkg/render"
	"github.com/macropower/dictamen/pkg/rule"
)

const instrumentationName = "github.com/macropower/dictamen/pkg/report"

// Builder builds a report from form data. A Builder is safe for concurrent
// use once created.
type Builder struct {
	report    *reports.Report
	engine    *render.Engine
	evaluator *expr.Evaluator
	env       *derive.Environment
	resolver  *rule.Resolver
	expander  *instance.Expander
	deriver   *derive.Deriver
	plural    *plural.Transformer
	tracer    trace.Tracer
	metrics   *metrics

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// BuilderOpt configures a [Builder].
type BuilderOpt func(*Builder)

// WithEngine renders templates with engine.
func WithEngine(engine *render.Engine) BuilderOpt {
	return func(b *Builder) {
		b.engine = engine
	}
}

// WithEvaluator compiles conditions with ev.
func WithEvaluator(ev *expr.Evaluator) BuilderOpt {
	return func(b *Builder) {
		b.evaluator = ev
	}
}

// WithEnvironment compiles derived variables in env.
func WithEnvironment(env *derive.Environment) BuilderOpt {
	return func(b *Builder) {
		b.env = env
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) BuilderOpt {
	return func(b *Builder) {
		b.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) BuilderOpt {
	return func(b *Builder) {
		b.meterProvider = mp
	}
}

// NewBuilder compiles r and returns a [Builder] for it. The report must have
// passed [reports.Report.Validate].
func NewBuilder(r *reports.Report, opts ...BuilderOpt) (*Builder, error) {
	b := &Builder{report: r}
	for _, opt := range opts {
		opt(b)
	}

	if b.engine == nil {
		b.engine = render.New()
	}

	if b.evaluator == nil {
		b.evaluator = expr.NewEvaluator(expr.WithCache(expr.NewCache()))
	}

	if b.env == nil {
		b.env = derive.MustNewEnvironment()
	}

	if b.tracerProvider == nil {
		b.tracerProvider = otel.GetTracerProvider()
	}

	if b.meterProvider == nil {
		b.meterProvider = otel.GetMeterProvider()
	}

	err := r.Compile(b.evaluator, b.env, b.engine)
	if err != nil {
		return nil, fmt.Errorf("compile report %q: %w", r.Name, err)
	}

	b.deriver, err = derive.New(b.env, r.Variables...)
	if err != nil {
		return nil, fmt.Errorf("compile report %q: %w", r.Name, err)
	}

	b.metrics, err = newMetrics(b.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	markers := r.Markers
	if len(markers) == 0 {
		markers = plural.DefaultMarkers
	}

	b.plural = plural.New(markers...)
	b.resolver = rule.NewResolver(b.engine, rule.WithEvaluator(b.evaluator))
	b.expander = instance.NewExpander(b.resolver, instance.WithMaxCount(r.MaxInstances))
	b.tracer = b.tracerProvider.Tracer(instrumentationName)

	return b, nil
}

// Report returns the report definition.
func (b *Builder) Report() *reports.Report {
	return b.report
}

// Build builds the report for data, which is not modified.
func (b *Builder) Build(ctx context.Context, data expr.Context) (*Output, error) {
	id := uuid.New()

	ctx, span := b.tracer.Start(ctx, "build", trace.WithAttributes(
		attribute.String("report", b.report.Name),
		attribute.String("build.id", id.String()),
	))
	defer span.End()

	ctx = log.With(ctx,
		slog.String("report", b.report.Name),
		slog.String("build_id", id.String()),
	)
	logger := log.WithContext(ctx)

	start := time.Now()

	out, err := b.build(ctx, logger, data)
	b.metrics.recordBuild(ctx, b.report.Name, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.DebugContext(ctx, "build failed", slog.Any("error", err))

		return nil, fmt.Errorf("build report %q: %w", b.report.Name, err)
	}

	out.ID = id

	span.SetAttributes(
		attribute.Int("count", out.Count),
		attribute.Int("diagnostics", len(out.Diagnostics)),
	)
	span.SetStatus(codes.Ok, "")

	logger.DebugContext(ctx, "report built",
		slog.Int("blocks", len(out.Blocks)),
		slog.Int("diagnostics", len(out.Diagnostics)),
		slog.Duration("duration", time.Since(start)),
	)

	return out, nil
}

func (b *Builder) build(ctx context.Context, logger *slog.Logger, data expr.Context) (*Output, error) {
	out := &Output{
		Report: b.report.Name,
		Blocks: make(map[string]string, len(b.report.Blocks)),
		Order:  b.report.BlockIDs(),
	}

	base, err := b.deriver.Apply(data)
	if err != nil {
		for _, e := range unjoin(err) {
			out.Diagnostics = append(out.Diagnostics, newDiagnostic("", 0, e))
		}
	}

	out.Count = 1
	if b.report.PluralCount != "" {
		out.Count, err = instance.ReadCount(base, b.report.PluralCount, b.report.MaxInstances)
		if err != nil {
			return nil, err //nolint:wrapcheck // Wrapped by Build.
		}
	}

	for _, blk := range b.report.Blocks {
		if blk.Repeat == nil {
			if names := undefinedNames(blk.RuleBlock(), base); len(names) > 0 {
				logger.DebugContext(ctx, "undefined names evaluate to null",
					slog.String("block", blk.ID),
					slog.Any("names", names),
				)
			}
		}

		text, diags, err := b.resolve(ctx, blk, base)
		if err != nil {
			return nil, err
		}

		for _, d := range diags {
			logger.WarnContext(ctx, "template render failed",
				slog.String("block", d.Block),
				slog.Int("instance", d.Instance),
				slog.Any("err", d.Err),
			)
		}

		out.Blocks[blk.ID] = text
		out.Diagnostics = append(out.Diagnostics, diags...)
	}

	// Blocks see the context as it was before any of them resolved.
	final := maps.Clone(base)
	for id, text := range out.Blocks {
		final[id] = text
	}

	for k, v := range final {
		s, ok := v.(string)
		if !ok || !b.plural.Contains(s) {
			continue
		}

		s = b.plural.Pluralize(s, out.Count)

		final[k] = s
		if _, isBlock := out.Blocks[k]; isBlock {
			out.Blocks[k] = s
		}
	}

	out.Context = final

	return out, nil
}

func (b *Builder) resolve(ctx context.Context, blk *reports.Block, base expr.Context) (string, []*Diagnostic, error) {
	ctx, span := b.tracer.Start(ctx, "resolve_block", trace.WithAttributes(
		attribute.String("block", blk.ID),
		attribute.Bool("repeat", blk.Repeat != nil),
	))
	defer span.End()

	var (
		text  string
		diags []*Diagnostic
		err   error
	)

	if blk.Repeat != nil {
		var exp *instance.Expansion

		exp, err = b.expander.ExpandInstances(blk.RuleBlock(), base, blk.Repeat.Config(base))
		if exp != nil {
			text = exp.Text
			span.SetAttributes(attribute.Int("instances", len(exp.Instances)))

			for _, ie := range exp.RenderErrors {
				diags = append(diags, newDiagnostic(blk.ID, ie.Instance, ie))
			}
		}
	} else {
		text, err = b.resolver.ResolveBlock(blk.RuleBlock(), base)

		var renderErr *rule.RenderError
		if errors.As(err, &renderErr) {
			diags = append(diags, newDiagnostic(blk.ID, 0, renderErr))
			err = nil
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", nil, err
	}

	b.metrics.recordBlock(ctx, blk.ID, len(diags))

	return text, diags, nil
}

// undefinedNames returns the names read by the conditions of blk that are
// absent from ctx.
func undefinedNames(blk *rule.Block, ctx expr.Context) []string {
	var names []string

	for _, r := range blk.Rules {
		c := r.Condition()
		if c == nil {
			continue
		}

		for _, name := range c.Variables() {
			if _, ok := ctx[name]; !ok && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	return names
}

func unjoin(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}

	return []error{err}
}
