package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/restops/auth"
	"github.com/jonwraymond/restops/cache"
	"github.com/jonwraymond/restops/config"
	"github.com/jonwraymond/restops/endpoint"
	"github.com/jonwraymond/restops/health"
	"github.com/jonwraymond/restops/observe"
)

// demoNamespace holds the endpoints served by `restops serve`.
const demoNamespace = "restops/v1"

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo endpoints with health checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				cfg.Observe.Logging.Level = level
			}
			cfg.Observe.Output = cmd.ErrOrStderr()
			return serve(cmd.Context(), cfg)
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.D())
		defer cancel()
		_ = srv.Close(shutdownCtx)
	}()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	hs := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout.D(),
		MaxHeaderBytes:    int(cfg.Server.MaxHeaderBytes),
	}

	errc := make(chan error, 1)
	go func() {
		srv.logger.Info(ctx, "restops listening",
			observe.Field{Key: "addr", Value: ln.Addr().String()},
			observe.Field{Key: "cache", Value: cfg.Cache.Backend})
		errc <- hs.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.D())
	defer cancel()
	srv.logger.Info(shutdownCtx, "shutting down")
	return hs.Shutdown(shutdownCtx)
}

// server is the assembled HTTP surface: the REST router, health checks and
// optional Prometheus metrics.
type server struct {
	mux    *http.ServeMux
	router *endpoint.MuxRouter
	health *health.Aggregator
	logger observe.Logger

	observer observe.Observer
	cache    io.Closer
}

func newServer(ctx context.Context, cfg *config.Config) (*server, error) {
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, err
	}
	logger := obs.Logger()

	store, closer, err := cfg.Cache.Open(logger)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	s := &server{
		mux:      http.NewServeMux(),
		router:   endpoint.NewMuxRouter(endpoint.WithPrefix(cfg.Server.Prefix), endpoint.WithRouterLogger(logger)),
		health:   health.NewAggregator(),
		logger:   logger,
		observer: obs,
		cache:    closer,
	}
	if err := s.registerEndpoints(cfg, store, mw); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	s.health.Register("cache", health.NewCacheChecker(store, health.CacheCheckerConfig{}))
	s.health.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
	if cfg.Cache.Backend != config.BackendMemory {
		s.health.Register("disk", health.NewDiskChecker(health.DiskCheckerConfig{Path: cfg.Cache.Dir}))
	}
	health.RegisterHandlers(s.mux, s.health)
	if h := observe.MetricsHandler(cfg.Observe); h != nil {
		s.mux.Handle("GET /metrics", h)
	}
	s.mux.Handle("/", s.router)
	return s, nil
}

func (s *server) registerEndpoints(cfg *config.Config, store cache.Cache, mw *observe.Middleware) error {
	shared, err := cfg.Middlewares()
	if err != nil {
		return err
	}
	mode, err := cfg.Cache.Mode()
	if err != nil {
		return err
	}

	route := func(c endpoint.Config) endpoint.Config {
		c.Namespace = demoNamespace
		c.Observer = mw
		c.Logger = s.logger
		c.Middlewares = append([]endpoint.Middleware(nil), shared...)
		if g := cfg.Auth.Guard(c.Namespace, c.Route, s.logger); g != nil {
			c.Middlewares = append(c.Middlewares, auth.Middleware(*g))
		}
		return c
	}

	endpoints := []endpoint.Config{
		route(endpoint.Config{
			Route:         "echo",
			Methods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			Cache:         store,
			Keyer:         cfg.Cache.NewKeyer(),
			Serialization: mode,
			TTL:           cfg.Cache.DefaultTTL.D(),
			Handler:       echoHandler,
		}),
		route(endpoint.Config{
			Route:   "whoami",
			Handler: whoamiHandler,
		}),
	}
	if fc, ok := store.(*cache.FileCache); ok {
		endpoints = append(endpoints, route(endpoint.Config{
			Route:   "cache/entries",
			Handler: entriesHandler(fc),
		}))
	}

	for _, c := range endpoints {
		if _, err := endpoint.Create(s.router, c); err != nil {
			return fmt.Errorf("route %s: %w", c.Route, err)
		}
	}
	return nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases the cache and flushes telemetry.
func (s *server) Close(ctx context.Context) error {
	return errors.Join(s.cache.Close(), s.observer.Shutdown(ctx))
}

func echoHandler(req *endpoint.Request) (any, error) {
	return map[string]any{
		"method": req.Method(),
		"params": req.Params.Map(),
		"at":     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func whoamiHandler(req *endpoint.Request) (any, error) {
	id := auth.IdentityFromContext(req.Context())
	if id == nil {
		id = auth.AnonymousIdentity()
	}
	return map[string]any{
		"principal": id.Principal,
		"tenant":    id.TenantID,
		"roles":     id.Roles,
		"method":    id.Method,
	}, nil
}

func entriesHandler(fc *cache.FileCache) endpoint.HandlerFunc {
	return func(req *endpoint.Request) (any, error) {
		entries, err := fc.Entries(req.Context())
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			item := map[string]any{
				"key":     e.Key,
				"size":    e.Size,
				"expired": e.Expired,
			}
			if !e.ExpiresAt.IsZero() {
				item["expires_at"] = e.ExpiresAt.UTC().Format(time.RFC3339)
			}
			out = append(out, item)
		}
		return out, nil
	}
}
