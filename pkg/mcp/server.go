package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/dictamen/pkg/expr"
	"github.com/macropower/dictamen/pkg/report"
	"github.com/macropower/dictamen/pkg/version"
)

// Server implements the MCP server for dictamen.
type Server struct {
	builder   *report.Builder
	evaluator *expr.Evaluator
	server    *mcp.Server
	tracer    trace.Tracer
	address   string
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithEvaluator evaluates conditions with ev.
func WithEvaluator(ev *expr.Evaluator) ServerOpt {
	return func(s *Server) {
		s.evaluator = ev
	}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) ServerOpt {
	return func(s *Server) {
		s.tracer = tp.Tracer("mcp")
	}
}

// NewServer creates a new MCP server listening on address, or on stdio when
// address is empty. The report tools build reports with builder; without a
// builder they return an error result.
func NewServer(address string, builder *report.Builder, opts ...ServerOpt) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s := &Server{
		address: address,
		builder: builder,
		server:  mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.evaluator == nil {
		s.evaluator = expr.NewEvaluator(expr.WithCache(expr.NewCache()))
	}

	if s.tracer == nil {
		s.tracer = otel.Tracer("mcp")
	}

	s.registerTools()

	return s
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	dataSchema := &jsonschema.Schema{
		Type:        "object",
		Description: "Form data: a flat object of field names to strings, numbers, booleans, lists or null.",
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "evaluate_condition",
		Description: "Evaluate a rule condition against form data. Returns the result, the canonical form of the condition and the names it reads.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"expression": {
					Type:        "string",
					Description: "The condition, e.g. tipo_opinion == 'favorable' and not incertidumbre.",
				},
				"data": dataSchema,
			},
			Required: []string{"expression"},
		},
	}, WithTracing(s.tracer, s.handleEvaluateCondition))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_report",
		Description: "Build the loaded report definition for form data. Returns the text of every block, or of the requested blocks, and any template failures.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"data": dataSchema,
				"blocks": {
					Type:        "array",
					Description: "Block IDs to return. All blocks when empty.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"data"},
		},
	}, WithTracing(s.tracer, s.handleRenderReport))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_blocks",
		Description: "List the blocks of the loaded report definition.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, WithTracing(s.tracer, s.handleListBlocks))
}

func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server and blocks until it stops.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx) //nolint:contextcheck // Parent is done.
		if err != nil {
			slog.Error("shutdown MCP server", slog.Any("err", err))
		}
	}()

	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := &mcp.LoggingTransport{Transport: &mcp.StdioTransport{}, Writer: os.Stderr}

	err := s.server.Run(ctx, t)
	if err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func errorResult[Out any](msg string, out Out) *mcp.CallToolResultFor[Out] {
	return &mcp.CallToolResultFor[Out]{
		Content:           []mcp.Content{&mcp.TextContent{Text: msg}},
		StructuredContent: out,
		IsError:           true,
	}
}
