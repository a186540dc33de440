package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/dictamen/pkg/log"
)

// ToolRequest is the request passed to a tool handler for arguments of type In.
type ToolRequest[In any] = mcp.ServerRequest[*mcp.CallToolParamsFor[In]]

// TracedToolHandler is an MCP tool handler that can be wrapped by [WithTracing].
type TracedToolHandler[In, Out any] func(
	context.Context,
	*ToolRequest[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing wraps a TracedToolHandler with OpenTelemetry tracing and
// structured logging. Each tool call gets a span, and its logs carry the
// trace ID.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	handler TracedToolHandler[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		req *ToolRequest[In],
	) (*mcp.CallToolResultFor[Out], error) {
		params := req.Params
		name := params.Name

		ctx, span := tracer.Start(ctx, name, trace.WithAttributes(
			attribute.String("mcp.tool", name),
		))
		defer span.End()

		ctx = log.With(ctx, slog.String("tool", name))
		logger := log.WithContext(ctx)

		logger.DebugContext(ctx, "handling tool call",
			slog.Any("progress_token", params.GetProgressToken()),
			slog.Any("args", params.Arguments),
		)

		result, err := handler(ctx, req)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "tool call failed", slog.Any("error", err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

		case result != nil && result.IsError:
			logger.DebugContext(ctx, "tool call returned an error result")
			span.SetStatus(codes.Error, "tool error result")

		default:
			logger.DebugContext(ctx, "tool call completed successfully")
		}

		return result, err
	}
}
