package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/restops/observe"
)

func ExampleNewObserver() {
	cfg := observe.Config{
		ServiceName: "example-service",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: false},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	}

	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, cfg)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	fmt.Println("Observer created successfully")
	// Output:
	// Observer created successfully
}

func ExampleNewObserver_validation() {
	_, err := observe.NewObserver(context.Background(), observe.Config{})
	if errors.Is(err, observe.ErrMissingServiceName) {
		fmt.Println("Caught: missing service name")
	}
	// Output:
	// Caught: missing service name
}

func ExampleConfig_Validate() {
	cfg := observe.Config{
		ServiceName: "my-service",
		Tracing: observe.TracingConfig{
			Enabled:   true,
			Exporter:  "stdout",
			SamplePct: 0.5,
		},
	}
	fmt.Println("valid:", cfg.Validate() == nil)

	cfg.Tracing.Exporter = "carrier-pigeon"
	fmt.Println("exporter error:", errors.Is(cfg.Validate(), observe.ErrInvalidTracingExporter))
	// Output:
	// valid: true
	// exporter error: true
}

func ExampleRouteMeta_SpanName() {
	meta := observe.RouteMeta{Namespace: "blog/v1", Route: "/posts/{id}", Method: "GET"}
	fmt.Println(meta.ID())
	fmt.Println(meta.SpanName())
	// Output:
	// blog/v1/posts/{id}
	// GET /blog/v1/posts/{id}
}

func ExampleLogger_WithRoute() {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("info", &buf)

	routeLogger := logger.WithRoute(observe.RouteMeta{Namespace: "blog/v1", Route: "posts"})
	routeLogger.Info(context.Background(), "served")

	output := buf.String()
	fmt.Println("Contains route.id:", strings.Contains(output, `"route.id":"blog/v1/posts"`))
	fmt.Println("Contains route.namespace:", strings.Contains(output, "route.namespace"))
	// Output:
	// Contains route.id: true
	// Contains route.namespace: true
}

func ExampleMiddleware_Wrap() {
	ctx := context.Background()

	cfg := observe.Config{
		ServiceName: "example",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "none"},
	}
	obs, _ := observe.NewObserver(ctx, cfg)
	defer func() {
		_ = obs.Shutdown(ctx)
	}()

	mw, _ := observe.MiddlewareFromObserver(obs)

	run := mw.Wrap(func(ctx context.Context, route observe.RouteMeta) (observe.Outcome, error) {
		return observe.Outcome{Status: 200, Cache: observe.CacheMiss}, nil
	})

	outcome, err := run(ctx, observe.RouteMeta{Namespace: "demo", Route: "items", Method: "GET"})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("status=%d cache=%s\n", outcome.Status, outcome.Cache)
	// Output:
	// status=200 cache=miss
}

func ExampleParseLogLevel() {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, s := range levels {
		level := observe.ParseLogLevel(s)
		fmt.Printf("%s -> %s\n", s, level)
	}
	// Output:
	// debug -> debug
	// info -> info
	// warn -> warn
	// error -> error
	// unknown -> info
}
