// Package log creates [slog.Handler]s for the CLI and carries build-scoped
// log attributes through contexts.
package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"go.opentelemetry.io/otel/trace"

	charmlog "github.com/charmbracelet/log"
)

type (
	Format string
	Level  string

	contextKey struct{}

	// scope is what a context carries for [WithContext].
	scope struct {
		logger *slog.Logger
		attrs  []slog.Attr
	}
)

const (
	FormatJSON   Format = "json"
	FormatLogfmt Format = "logfmt"
	FormatText   Format = "text"

	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"

	// traceIDLength is the number of trace ID characters logged.
	traceIDLength = 8
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")

	AllFormats = []string{
		string(FormatJSON),
		string(FormatLogfmt),
		string(FormatText),
	}
	AllLevels = []string{
		string(LevelError),
		string(LevelWarn),
		string(LevelInfo),
		string(LevelDebug),
	}
)

// CreateHandlerWithStrings creates a [slog.Handler] from the --log-level and
// --log-format flag values.
func CreateHandlerWithStrings(w io.Writer, logLevel, logFormat string) (slog.Handler, error) {
	logLvl, err := ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	logFmt, err := ParseFormat(logFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return CreateHandler(w, logLvl, logFmt)
}

// CreateHandler creates a [slog.Handler] writing to w. Machine formats include
// the source position; the text format is meant for terminals.
func CreateHandler(w io.Writer, logLvl slog.Level, logFmt Format) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     logLvl,
	}

	switch logFmt {
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	case FormatLogfmt:
		return slog.NewTextHandler(w, opts), nil
	case FormatText:
		return newTerminalHandler(w, logLvl), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownLogFormat, logFmt)
}

// ParseLevel parses a case-insensitive level name. "warning" is accepted as
// an alias of "warn".
func ParseLevel(level string) (slog.Level, error) {
	switch Level(strings.ToLower(level)) {
	case LevelError:
		return slog.LevelError, nil
	case LevelWarn, "warning":
		return slog.LevelWarn, nil
	case LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLogLevel, level)
}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(format string) (Format, error) {
	logFmt := Format(strings.ToLower(format))
	if slices.Contains(AllFormats, string(logFmt)) {
		return logFmt, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLogFormat, format)
}

func newTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	//nolint:gosec // G115: input from ParseLevel.
	lvl := int32(level)

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(lvl),
		Formatter:       charmlog.TextFormatter,
		ReportTimestamp: true,
		ReportCaller:    true,
		TimeFormat:      time.StampMilli,
	})
	logger.SetColorProfile(termenv.ColorProfile())

	return logger
}

// NewContext returns a copy of ctx whose [WithContext] logger derives from
// logger instead of [slog.Default]. Attributes added with [With] are kept.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	s := scopeFrom(ctx)
	s.logger = logger

	return context.WithValue(ctx, contextKey{}, s)
}

// With returns a copy of ctx whose [WithContext] logger also carries attrs,
// such as the report name and build ID of a report build. Attributes from
// outer calls come first.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	s := scopeFrom(ctx)
	s.attrs = append(slices.Clip(s.attrs), attrs...)

	return context.WithValue(ctx, contextKey{}, s)
}

// WithContext returns the logger for ctx: the logger from [NewContext] (or
// [slog.Default]) with the attributes from [With], and the shortened trace ID
// of the active span when there is one.
func WithContext(ctx context.Context) *slog.Logger {
	s := scopeFrom(ctx)

	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}

	args := make([]any, 0, len(s.attrs)+1)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		traceID := span.SpanContext().TraceID().String()
		if len(traceID) > traceIDLength {
			traceID = traceID[:traceIDLength]
		}

		args = append(args, slog.String("trace_id", traceID))
	}

	for _, a := range s.attrs {
		args = append(args, a)
	}

	if len(args) == 0 {
		return logger
	}

	return logger.With(args...)
}

func scopeFrom(ctx context.Context) scope {
	s, _ := ctx.Value(contextKey{}).(scope)

	return s
}
