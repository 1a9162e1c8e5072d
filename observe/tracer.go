package observe

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// RouteMeta identifies a registered REST route for telemetry purposes.
type RouteMeta struct {
	Namespace string // Route namespace, e.g. "blog/v1" (may be empty)
	Route     string // Route path within the namespace, e.g. "/posts/{id}"
	Method    string // HTTP method of the current request (optional)
}

// ID returns the fully qualified route identifier: namespace and route
// joined by a single slash, without leading or trailing slashes.
func (m RouteMeta) ID() string {
	ns := strings.Trim(m.Namespace, "/")
	route := strings.Trim(m.Route, "/")
	switch {
	case ns == "":
		return route
	case route == "":
		return ns
	default:
		return ns + "/" + route
	}
}

// SpanName returns the deterministic span name for this route.
// Format: "<METHOD> /<id>" or "/<id>" when no method is set.
func (m RouteMeta) SpanName() string {
	if m.Method != "" {
		return m.Method + " /" + m.ID()
	}
	return "/" + m.ID()
}

// Tracer wraps OpenTelemetry tracing with route-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one request.
	StartSpan(ctx context.Context, meta RouteMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a server span with route metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta RouteMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", "/"+meta.ID()),
		attribute.Bool("rest.error", false), // Updated in EndSpan on error
	}
	if meta.Namespace != "" {
		attrs = append(attrs, attribute.String("rest.namespace", meta.Namespace))
	}
	if meta.Method != "" {
		attrs = append(attrs, attribute.String("http.request.method", meta.Method))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndSpan ends the span and records status, cache outcome and error.
func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	if outcome.Status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", outcome.Status))
	}
	if outcome.Cache != CacheNone {
		span.SetAttributes(attribute.String("rest.cache", string(outcome.Cache)))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("rest.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// newNoopTracer creates a no-op tracer.
func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta RouteMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Outcome, _ error) {
	span.End()
}
