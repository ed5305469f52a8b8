package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name of the service tracer.
const tracerName = "github.com/MrWong99/worldstate"

// Span names of the long-running operations.
const (
	SpanPoll         = "worldstate.poll"
	SpanContextBuild = "worldstate.context.build"
	SpanToolCall     = "worldstate.tool"
)

// Span attribute keys.
const (
	AttrSnapshotID = attribute.Key("worldstate.snapshot.id")
	AttrSource     = attribute.Key("worldstate.source")
	AttrStored     = attribute.Key("worldstate.stored")
	AttrTool       = attribute.Key("worldstate.tool")
)

// Tracer returns the service tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span under ctx. The caller ends it, usually with
// [Finish].
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// Finish marks span as failed when err is non-nil and ends it.
func Finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID is the trace ID of the span in ctx, or "" without one.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with trace_id and span_id attached when
// ctx carries a span.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	return l
}
