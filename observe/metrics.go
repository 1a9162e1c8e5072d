package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheStatus describes how the response cache took part in a request.
type CacheStatus string

const (
	// CacheNone means no cache is attached to the endpoint, or the request
	// never reached the cache stage.
	CacheNone CacheStatus = ""
	// CacheHit means the response was decoded from the cache.
	CacheHit CacheStatus = "hit"
	// CacheMiss means the handler ran and its result was offered to the cache.
	CacheMiss CacheStatus = "miss"
)

// Outcome summarizes one pipeline run for telemetry.
type Outcome struct {
	Status int
	Cache  CacheStatus
}

// Metrics records request metrics for endpoints.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one request with its duration, outcome and error.
	RecordRequest(ctx context.Context, meta RouteMeta, outcome Outcome, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"rest.request.total",
		metric.WithDescription("Total number of endpoint requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"rest.request.errors",
		metric.WithDescription("Requests that failed or answered with a 5xx status"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"rest.cache.hits",
		metric.WithDescription("Responses served from the response cache"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"rest.cache.misses",
		metric.WithDescription("Cache lookups that fell through to the handler"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"rest.request.duration_ms",
		metric.WithDescription("Endpoint pipeline duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:   totalCount,
		errorCount:   errorCount,
		cacheHits:    cacheHits,
		cacheMisses:  cacheMisses,
		durationHist: durationHist,
	}, nil
}

// RecordRequest records metrics for one request.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta RouteMeta, outcome Outcome, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.route", "/"+meta.ID()),
	}
	if meta.Method != "" {
		attrs = append(attrs, attribute.String("http.request.method", meta.Method))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)

	if err != nil || outcome.Status >= 500 {
		m.errorCount.Add(ctx, 1, opt)
	}

	switch outcome.Cache {
	case CacheHit:
		m.cacheHits.Add(ctx, 1, opt)
	case CacheMiss:
		m.cacheMisses.Add(ctx, 1, opt)
	}

	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordRequest(context.Context, RouteMeta, Outcome, time.Duration, error) {}
