package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"

	"go.opentelemetry.io/otel/trace"
)

// TracingHandler decorates a slog.Handler with the active trace and span ids.
type TracingHandler struct {
	handler slog.Handler
}

func NewTracingHandler(h slog.Handler) *TracingHandler {
	return &TracingHandler{handler: h}
}

func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.handler.Handle(ctx, record)
}

func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{handler: h.handler.WithGroup(name)}
}

// LoggerOptions mirrors the logging section of the configuration.
type LoggerOptions struct {
	Level      string
	Format     string
	Output     string
	Attributes map[string]string
}

// NewLogger builds a trace-aware logger. It does not touch slog.Default.
func NewLogger(opts LoggerOptions) *slog.Logger {
	return newLogger(outputWriter(opts.Output), opts)
}

func newLogger(w io.Writer, opts LoggerOptions) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch opts.Format {
	case "text":
		handler = slog.NewTextHandler(w, hopts)
	default:
		handler = slog.NewJSONHandler(w, hopts)
	}
	if len(opts.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(opts.Attributes))
	}
	return slog.New(NewTracingHandler(handler))
}

func outputWriter(output string) io.Writer {
	if output == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// ParseLevel converts a configured level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes turns static attributes into slog attrs in key order.
func convertAttributes(attrs map[string]string) []slog.Attr {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	result := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		result = append(result, slog.String(k, attrs[k]))
	}
	return result
}
