// Package observe provides observability primitives for REST endpoints.
//
// It is a pure instrumentation library: a JSON structured logger, an
// OpenTelemetry tracer/meter pair and a Middleware that wraps one pipeline
// run with a span, request/cache metrics and a log line. It performs no
// routing and no I/O beyond exporter setup; the endpoint package wires it
// around each request.
package observe
