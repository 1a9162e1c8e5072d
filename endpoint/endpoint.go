package endpoint

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/restops/cache"
	"github.com/jonwraymond/restops/observe"
)

// Endpoint is one route with its cached middleware pipeline.
//
// Contract:
//   - Concurrency: Handle is safe for concurrent use. Use must not race
//     with Register.
//   - Caching: there is no single-flight; concurrent misses on one key each
//     run the handler and the last cache write wins.
//   - Errors: cache failures never fail a request; they are logged.
type Endpoint struct {
	cfg   Config
	codec Codec
	ttl   time.Duration

	mu          sync.RWMutex
	middlewares []Middleware
	registered  bool
}

// New validates cfg and builds an endpoint. A TTL derived from ExpiresAt is
// fixed here, not per request.
func New(cfg Config) (*Endpoint, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	codec, err := NewCodec(cfg.Serialization)
	if err != nil {
		return nil, err
	}
	e := &Endpoint{
		cfg:         cfg,
		codec:       codec,
		ttl:         cfg.cacheTTL(),
		middlewares: append([]Middleware(nil), cfg.Middlewares...),
	}
	return e, nil
}

// Use appends a middleware to the chain. It fails once the endpoint has been
// registered with a router.
func (e *Endpoint) Use(mw Middleware) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registered {
		return ErrAlreadyMounted
	}
	if mw != nil {
		e.middlewares = append(e.middlewares, mw)
	}
	return nil
}

// Register mounts the endpoint on r.
func (e *Endpoint) Register(r Router) error {
	e.mu.Lock()
	if e.registered {
		e.mu.Unlock()
		return ErrAlreadyMounted
	}
	e.registered = true
	e.mu.Unlock()

	err := r.Register(Route{
		Namespace:  e.cfg.Namespace,
		Path:       e.cfg.Route,
		Methods:    e.cfg.Methods,
		Handler:    e.Handle,
		Permission: e.cfg.Permission,
		Args:       e.cfg.Args,
	})
	if err != nil {
		e.mu.Lock()
		e.registered = false
		e.mu.Unlock()
		return err
	}
	return nil
}

// Namespace returns the configured namespace.
func (e *Endpoint) Namespace() string { return e.cfg.Namespace }

// Route returns the configured route.
func (e *Endpoint) Route() string { return e.cfg.Route }

// Methods returns the accepted HTTP methods.
func (e *Endpoint) Methods() []string {
	return append([]string(nil), e.cfg.Methods...)
}

// TTL returns the lifetime used for cache writes. A negative value means
// writes remove the entry instead.
func (e *Endpoint) TTL() time.Duration { return e.ttl }

// CacheKey returns the cache key for req.
func (e *Endpoint) CacheKey(req *Request) string {
	return e.cfg.Keyer.Fingerprint(req.Params.Values())
}

// Handle runs req through the pipeline.
func (e *Endpoint) Handle(req *Request) (*Response, error) {
	meta := observe.RouteMeta{
		Namespace: e.cfg.Namespace,
		Route:     e.cfg.Route,
		Method:    req.Method(),
	}

	var resp *Response
	run := e.cfg.Observer.Wrap(func(ctx context.Context, _ observe.RouteMeta) (observe.Outcome, error) {
		var (
			outcome observe.Outcome
			err     error
		)
		resp, outcome.Cache, err = e.run(req.WithContext(ctx))
		if resp != nil {
			outcome.Status = resp.Status
		}
		return outcome, err
	})
	if _, err := run(req.Context(), meta); err != nil {
		return nil, err
	}
	return resp, nil
}

// run is the pipeline proper. The returned status reports the cache lookup.
func (e *Endpoint) run(req *Request) (*Response, observe.CacheStatus, error) {
	ctx := req.Context()

	var (
		key    string
		cached *Response
		status = observe.CacheNone
	)
	if e.cfg.Cache != nil {
		key = e.CacheKey(req)
		cached = e.lookup(ctx, key)
		status = observe.CacheMiss
		if cached != nil {
			status = observe.CacheHit
		}
	}

	final := func(req *Request) (*Response, error) {
		if cached != nil {
			return cached, nil
		}
		result, err := e.cfg.Handler(req)
		if err != nil {
			return nil, err
		}
		if r, ok := result.(*Response); ok {
			if r == nil {
				return nil, errors.New("endpoint: handler returned a nil *Response")
			}
			return r, nil
		}
		resp := NewResponse(result, http.StatusOK)
		if e.cfg.Cache != nil {
			e.store(req.Context(), key, result)
			resp.cache = observe.CacheMiss
		}
		return resp, nil
	}

	e.mu.RLock()
	next := chain(e.middlewares, final)
	e.mu.RUnlock()

	resp, err := next(req)
	if err != nil {
		return nil, status, err
	}
	if resp == nil {
		return nil, status, errors.New("endpoint: middleware returned no response")
	}
	return resp, status, nil
}

// lookup returns the cached response for key, or nil on a miss. An entry
// that fails to decode is logged, removed and reported as a miss.
func (e *Endpoint) lookup(ctx context.Context, key string) *Response {
	payload, ok := e.cfg.Cache.Get(ctx, key)
	if !ok || len(payload) == 0 {
		return nil
	}
	data, err := e.codec.Decode(payload)
	if err != nil {
		e.cfg.Logger.Warn(ctx, "discarding undecodable cache entry",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
		if derr := e.cfg.Cache.Delete(ctx, key); derr != nil && !errors.Is(derr, cache.ErrNotFound) {
			e.cfg.Logger.Warn(ctx, "cache delete failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: derr.Error()})
		}
		return nil
	}
	resp := NewResponse(data, http.StatusOK)
	resp.cache = observe.CacheHit
	return resp
}

// store writes result under key. Failures are logged only.
func (e *Endpoint) store(ctx context.Context, key string, result any) {
	payload, err := e.codec.Encode(result)
	if err != nil {
		e.cfg.Logger.Warn(ctx, "cache encode failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
		return
	}
	if err := e.cfg.Cache.Set(ctx, key, payload, e.ttl); err != nil {
		e.cfg.Logger.Warn(ctx, "cache write failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// chain composes mws around final. The first middleware is outermost.
func chain(mws []Middleware, final Next) Next {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw, inner := mws[i], next
		next = func(req *Request) (*Response, error) {
			return mw(req, inner)
		}
	}
	return next
}
