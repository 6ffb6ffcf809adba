// Package tracing holds the process-wide tracer and the span helpers the
// reconciliation pipeline uses. Until SetTracer is called every helper is a
// no-op, so packages under test never need tracing setup.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer installs the tracer used by StartSpan.
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a new span with the given name and returns the context and span.
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName)
}

// activeSpan returns the span recording on the context, or nil when tracing
// is off or the context carries only a no-op span.
func activeSpan(ctx context.Context) trace.Span {
	if tracer == nil {
		return nil
	}
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}
	return span
}

// carrier materializes the W3C trace context headers for the context.
func carrier(ctx context.Context) propagation.MapCarrier {
	c := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(ctx, c)
	return c
}

// GetTraceParent returns the W3C traceparent header value for the active
// span. Stamped onto outgoing Kafka messages.
func GetTraceParent(ctx context.Context) string {
	if activeSpan(ctx) == nil {
		return ""
	}
	return carrier(ctx).Get("traceparent")
}

// GetTraceState returns the W3C tracestate header value for the active span.
func GetTraceState(ctx context.Context) string {
	if activeSpan(ctx) == nil {
		return ""
	}
	return carrier(ctx).Get("tracestate")
}

// GetTraceID returns the trace ID from the context. Error responses carry it
// so a failed request can be found in the traces.
func GetTraceID(ctx context.Context) string {
	span := activeSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().TraceID().String()
}

// GetSpanID returns the span ID from the context.
func GetSpanID(ctx context.Context) string {
	span := activeSpan(ctx)
	if span == nil {
		return ""
	}
	return span.SpanContext().SpanID().String()
}
