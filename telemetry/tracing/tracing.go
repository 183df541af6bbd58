// Package tracing starts spans around task iterations using the real
// go.opentelemetry.io/otel trace API. The engine never installs an
// SDK exporter itself — otel.Tracer resolves to the global no-op
// provider unless the embedding application has configured its own,
// which keeps span creation in scope while OTLP pipeline wiring stays
// the caller's responsibility.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/vajrapulse/vajrapulse"

// StartIteration opens a child span named "vajrapulse.iteration" when
// enabled is true; otherwise it returns ctx unchanged and a no-op end
// function, so call sites never need to branch on the flag.
func StartIteration(ctx context.Context, enabled bool, runID string, iteration int64) (context.Context, func(err error)) {
	if !enabled {
		return ctx, func(error) {}
	}
	tracer := otel.Tracer(instrumentationName)
	spanCtx, span := tracer.Start(ctx, "vajrapulse.iteration",
		trace.WithAttributes(
			attribute.String("vajrapulse.run_id", runID),
			attribute.Int64("vajrapulse.iteration", iteration),
		),
	)
	return spanCtx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("vajrapulse.status", "failure"))
		} else {
			span.SetAttributes(attribute.String("vajrapulse.status", "success"))
		}
		span.End()
	}
}

// ExtractIDs returns the trace and span id hex strings of the active
// span in ctx, or empty strings when there is none, used by the
// logging wrapper to correlate log lines with spans.
func ExtractIDs(ctx context.Context) (traceID, spanID string) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
