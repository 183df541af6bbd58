// Package logging wraps github.com/rs/zerolog behind the teacher's
// correlated-logger interface (telemetry/logging/logging.go), reading
// trace/span ids from the active context via the real otel trace API
// instead of the teacher's hand-rolled tracer.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/vajrapulse/vajrapulse/telemetry/tracing"
)

// Logger emits context-correlated log events.
type Logger interface {
	InfoCtx(ctx context.Context, msg string, fields map[string]any)
	WarnCtx(ctx context.Context, msg string, fields map[string]any)
	ErrorCtx(ctx context.Context, msg string, err error, fields map[string]any)
}

type correlatedLogger struct {
	base zerolog.Logger
}

// New builds a Logger. When structured is true, output is JSON
// (zerolog's default encoder); otherwise a human-readable console
// writer is used, matching the dev-vs-production split
// ObservabilityConfig.StructuredLogging controls.
func New(w io.Writer, structured bool) Logger {
	if w == nil {
		w = os.Stdout
	}
	if !structured {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	base := zerolog.New(w).With().Timestamp().Logger()
	return &correlatedLogger{base: base}
}

func (l *correlatedLogger) withCorrelation(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if traceID, spanID := tracing.ExtractIDs(ctx); traceID != "" {
		e = e.Str("trace_id", traceID).Str("span_id", spanID)
	}
	return e
}

func applyFields(e *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		e = e.Interface(k, v)
	}
	return e
}

func (l *correlatedLogger) InfoCtx(ctx context.Context, msg string, fields map[string]any) {
	applyFields(l.withCorrelation(ctx, l.base.Info()), fields).Msg(msg)
}

func (l *correlatedLogger) WarnCtx(ctx context.Context, msg string, fields map[string]any) {
	applyFields(l.withCorrelation(ctx, l.base.Warn()), fields).Msg(msg)
}

func (l *correlatedLogger) ErrorCtx(ctx context.Context, msg string, err error, fields map[string]any) {
	applyFields(l.withCorrelation(ctx, l.base.Error().Err(err)), fields).Msg(msg)
}
