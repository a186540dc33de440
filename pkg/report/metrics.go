package report

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	builds         metric.Int64Counter
	buildDuration  metric.Float64Histogram
	blocksResolved metric.Int64Counter
	renderFailures metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)

	m.builds, err = meter.Int64Counter("dictamen.builds",
		metric.WithDescription("Number of report builds"),
	)
	if err != nil {
		return nil, fmt.Errorf("create builds counter: %w", err)
	}

	m.buildDuration, err = meter.Float64Histogram("dictamen.build.duration_ms",
		metric.WithDescription("Report build duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create build duration histogram: %w", err)
	}

	m.blocksResolved, err = meter.Int64Counter("dictamen.blocks.resolved",
		metric.WithDescription("Number of blocks resolved"),
	)
	if err != nil {
		return nil, fmt.Errorf("create blocks counter: %w", err)
	}

	m.renderFailures, err = meter.Int64Counter("dictamen.render.failures",
		metric.WithDescription("Number of templates that failed to render"),
	)
	if err != nil {
		return nil, fmt.Errorf("create render failures counter: %w", err)
	}

	return &m, nil
}

func (m *metrics) recordBuild(ctx context.Context, report string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("report", report),
		attribute.String("status", status),
	)

	m.builds.Add(ctx, 1, attrs)
	m.buildDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
}

func (m *metrics) recordBlock(ctx context.Context, block string, failures int) {
	attrs := metric.WithAttributes(attribute.String("block", block))

	m.blocksResolved.Add(ctx, 1, attrs)

	if failures > 0 {
		m.renderFailures.Add(ctx, int64(failures), attrs)
	}
}
