package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestRouteMeta_ID(t *testing.T) {
	tests := []struct {
		name     string
		meta     RouteMeta
		expected string
	}{
		{"namespace and route", RouteMeta{Namespace: "blog/v1", Route: "/posts"}, "blog/v1/posts"},
		{"surrounding slashes", RouteMeta{Namespace: "/blog/v1/", Route: "/posts/"}, "blog/v1/posts"},
		{"route only", RouteMeta{Route: "/health"}, "health"},
		{"namespace only", RouteMeta{Namespace: "blog/v1"}, "blog/v1"},
		{"empty", RouteMeta{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.ID(); got != tt.expected {
				t.Errorf("ID() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRouteMeta_SpanName(t *testing.T) {
	with := RouteMeta{Namespace: "blog/v1", Route: "posts", Method: "GET"}
	if got := with.SpanName(); got != "GET /blog/v1/posts" {
		t.Errorf("SpanName() = %q, want %q", got, "GET /blog/v1/posts")
	}
	without := RouteMeta{Namespace: "blog/v1", Route: "posts"}
	if got := without.SpanName(); got != "/blog/v1/posts" {
		t.Errorf("SpanName() = %q, want %q", got, "/blog/v1/posts")
	}
}

func newRecordingTracer() (*tracerImpl, *tracetest.SpanRecorder, trace.Tracer) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otelTracer := tp.Tracer("test")
	return &tracerImpl{tracer: otelTracer}, recorder, otelTracer
}

func attrMap(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	m := make(map[string]attribute.Value)
	for _, a := range s.Attributes() {
		m[string(a.Key)] = a.Value
	}
	return m
}

// TestTracer_SpanAttributes verifies route, outcome and cache attributes on a server span.
func TestTracer_SpanAttributes(t *testing.T) {
	tr, recorder, _ := newRecordingTracer()
	meta := RouteMeta{Namespace: "blog/v1", Route: "/posts", Method: "POST"}

	_, span := tr.StartSpan(context.Background(), meta)
	tr.EndSpan(span, Outcome{Status: 201, Cache: CacheMiss}, nil)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]

	if s.Name() != "POST /blog/v1/posts" {
		t.Errorf("expected span name 'POST /blog/v1/posts', got %q", s.Name())
	}
	if s.SpanKind() != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", s.SpanKind())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", s.Status().Code)
	}

	attrs := attrMap(s)
	if v, ok := attrs["http.route"]; !ok || v.AsString() != "/blog/v1/posts" {
		t.Errorf("expected http.route='/blog/v1/posts', got %v", v)
	}
	if v, ok := attrs["rest.namespace"]; !ok || v.AsString() != "blog/v1" {
		t.Errorf("expected rest.namespace='blog/v1', got %v", v)
	}
	if v, ok := attrs["http.request.method"]; !ok || v.AsString() != "POST" {
		t.Errorf("expected http.request.method='POST', got %v", v)
	}
	if v, ok := attrs["http.response.status_code"]; !ok || v.AsInt64() != 201 {
		t.Errorf("expected http.response.status_code=201, got %v", v)
	}
	if v, ok := attrs["rest.cache"]; !ok || v.AsString() != "miss" {
		t.Errorf("expected rest.cache='miss', got %v", v)
	}
	if v, ok := attrs["rest.error"]; !ok || v.AsBool() {
		t.Errorf("expected rest.error=false, got %v", v)
	}
}

// TestTracer_SpanAttributesMinimal verifies optional attributes are omitted.
func TestTracer_SpanAttributesMinimal(t *testing.T) {
	tr, recorder, _ := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), RouteMeta{Route: "health"})
	tr.EndSpan(span, Outcome{}, nil)

	attrs := attrMap(recorder.Ended()[0])
	for _, key := range []string{"rest.namespace", "http.request.method", "http.response.status_code", "rest.cache"} {
		if _, ok := attrs[key]; ok {
			t.Errorf("expected no %s attribute", key)
		}
	}
	if _, ok := attrs["http.route"]; !ok {
		t.Error("expected http.route attribute")
	}
}

// TestTracer_ContextPropagation verifies parent span is propagated.
func TestTracer_ContextPropagation(t *testing.T) {
	tr, recorder, otelTracer := newRecordingTracer()

	parentCtx, parentSpan := otelTracer.Start(context.Background(), "parent")
	_, childSpan := tr.StartSpan(parentCtx, RouteMeta{Route: "posts", Method: "GET"})
	tr.EndSpan(childSpan, Outcome{Status: 200}, nil)
	parentSpan.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	var child sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == "GET /posts" {
			child = s
			break
		}
	}
	if child == nil {
		t.Fatal("child span not found")
	}
	if child.Parent().TraceID() != parentSpan.SpanContext().TraceID() {
		t.Error("child span should have same trace ID as parent")
	}
	if !child.Parent().SpanID().IsValid() {
		t.Error("child span should have valid parent span ID")
	}
}

// TestTracer_ErrorRecording verifies error sets span status and attribute.
func TestTracer_ErrorRecording(t *testing.T) {
	tr, recorder, _ := newRecordingTracer()

	_, span := tr.StartSpan(context.Background(), RouteMeta{Route: "posts"})
	tr.EndSpan(span, Outcome{Status: 500}, errors.New("handler failed"))

	s := recorder.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if s.Status().Description != "handler failed" {
		t.Errorf("expected status description 'handler failed', got %q", s.Status().Description)
	}
	if v := attrMap(s)["rest.error"]; !v.AsBool() {
		t.Error("expected rest.error=true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestNoopTracer_NoPanic(t *testing.T) {
	tr := newNoopTracer()
	ctx, span := tr.StartSpan(context.Background(), RouteMeta{Route: "posts"})
	if ctx == nil || span == nil {
		t.Fatal("expected non-nil context and span")
	}
	tr.EndSpan(span, Outcome{Status: 200}, errors.New("ignored"))
}
