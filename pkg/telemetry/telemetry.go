// Package telemetry configures OpenTelemetry tracing.
//
// Spans are exported over OTLP/gRPC when an endpoint is configured. Without
// one, the global no-op provider stays in place and tracing costs nothing.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrNoEndpoint is returned by [NewTracerProvider] without an endpoint.
var ErrNoEndpoint = errors.New("no OTLP endpoint configured")

// Config controls trace export.
type Config struct {
	// ServiceName identifies this process in traces.
	ServiceName string
	// ServiceVersion is the version of this process.
	ServiceVersion string
	// Endpoint is the host:port of the OTLP gRPC receiver. Empty disables
	// export.
	Endpoint string
	// Insecure disables TLS for the OTLP connection.
	Insecure bool
}

// NewTracerProvider creates a tracer provider exporting to cfg.Endpoint.
// The connection is made lazily.
func NewTracerProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res := resource.NewWithAttributes("",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// Setup installs a global tracer provider for cfg. The returned function
// flushes and stops it; it is a no-op when export is disabled.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Debug("exporting traces", slog.String("endpoint", cfg.Endpoint))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}

		return nil
	}, nil
}
