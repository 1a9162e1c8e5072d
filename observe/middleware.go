package observe

import (
	"context"
	"time"
)

// ExecuteFunc is one run of an endpoint pipeline.
type ExecuteFunc func(ctx context.Context, route RouteMeta) (Outcome, error)

// Middleware wraps pipeline runs with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans and attaches a
//     request id when the caller has not set one.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = &noopMetrics{}
	}
	if logger == nil {
		logger = &noopLogger{}
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NoopMiddleware returns a Middleware that records nothing.
func NoopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Logger returns the logger used by the middleware.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, route RouteMeta) (Outcome, error) {
		if RequestIDFromContext(ctx) == "" {
			ctx = WithRequestID(ctx, NewRequestID())
		}

		ctx, span := m.tracer.StartSpan(ctx, route)
		start := time.Now()

		outcome, err := fn(ctx, route)

		duration := time.Since(start)
		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordRequest(ctx, route, outcome, duration, err)

		routeLogger := m.logger.WithRoute(route)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if outcome.Status != 0 {
			fields = append(fields, Field{Key: "status", Value: outcome.Status})
		}
		if outcome.Cache != CacheNone {
			fields = append(fields, Field{Key: "cache", Value: string(outcome.Cache)})
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			routeLogger.Error(ctx, "request failed", fields...)
		} else {
			routeLogger.Info(ctx, "request completed", fields...)
		}

		return outcome, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
