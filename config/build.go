package config

import (
	"fmt"
	"io"

	"github.com/jonwraymond/restops/auth"
	"github.com/jonwraymond/restops/cache"
	"github.com/jonwraymond/restops/endpoint"
	"github.com/jonwraymond/restops/middleware"
	"github.com/jonwraymond/restops/observe"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Policy returns the cache expiry policy.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{DefaultTTL: c.DefaultTTL.D(), MaxTTL: c.MaxTTL.D()}
}

// Open creates the configured cache backend. The closer releases the
// backend's resources and is never nil.
func (c CacheConfig) Open(logger observe.Logger) (cache.Cache, io.Closer, error) {
	opts := []cache.Option{cache.WithPolicy(c.Policy()), cache.WithLogger(logger)}
	switch c.Backend {
	case BackendMemory:
		return cache.NewMemoryCache(opts...), nopCloser{}, nil
	case BackendLevelDB:
		db, err := cache.NewLevelDBCache(c.Dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case BackendFile, "":
		fc, err := cache.NewFileCache(c.Dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return fc, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend)
}

// NewKeyer returns the configured fingerprint function.
func (c CacheConfig) NewKeyer() cache.Keyer {
	if c.Keyer == "xxhash" {
		return cache.NewXXHashKeyer()
	}
	return cache.NewDefaultKeyer()
}

// Mode returns the configured serialization mode.
func (c CacheConfig) Mode() (endpoint.Serialization, error) {
	return endpoint.ParseSerialization(c.Serialization)
}

// Middlewares builds the shared middleware chain in pipeline order: rate
// limit, concurrency limit, timeout, CORS, sanitize.
func (c *Config) Middlewares() ([]endpoint.Middleware, error) {
	var chain []endpoint.Middleware
	if rl := c.RateLimit; rl.Enabled {
		mc := middleware.RateLimitConfig{Rate: rl.Rate, Burst: rl.Burst, MaxWait: rl.MaxWait.D()}
		if rl.PerClient {
			mc.KeyFunc = middleware.ClientIP
		}
		chain = append(chain, middleware.RateLimit(mc))
	}
	if c.Server.MaxConcurrent > 0 {
		chain = append(chain, middleware.ConcurrencyLimit(c.Server.MaxConcurrent, c.Server.MaxWait.D()))
	}
	if c.Server.RequestTimeout > 0 {
		chain = append(chain, middleware.Timeout(c.Server.RequestTimeout.D()))
	}
	chain = append(chain, middleware.CORS(c.CORS))
	if s := c.Sanitize; s.Enabled {
		mw, err := middleware.Sanitize(middleware.SanitizeConfig{
			KeepTags:     s.KeepTags,
			SkipEncoding: s.SkipEncoding,
			AllowedTags:  s.AllowedTags,
			Encoding:     s.Encoding,
		})
		if err != nil {
			return nil, fmt.Errorf("sanitize: %w", err)
		}
		chain = append(chain, mw)
	}
	return chain, nil
}

// Authenticator builds the authenticator chain, or nil when auth is off.
func (a AuthConfig) Authenticator() auth.Authenticator {
	if !a.Enabled {
		return nil
	}
	var auths []auth.Authenticator
	if len(a.APIKeys) > 0 {
		store := auth.NewMemoryAPIKeyStore()
		for _, k := range a.APIKeys {
			store.Add(&auth.APIKeyInfo{
				ID:        k.ID,
				KeyHash:   auth.HashAPIKey(k.Key),
				Principal: k.Principal,
				TenantID:  k.TenantID,
				Roles:     k.Roles,
				ExpiresAt: k.expiresAt,
			})
		}
		auths = append(auths, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{HeaderName: a.APIKeyHeader}, store))
	}
	if a.JWT.Secret != "" {
		auths = append(auths, auth.NewJWTAuthenticator(auth.JWTConfig{
			Issuer:     a.JWT.Issuer,
			Audience:   a.JWT.Audience,
			RolesClaim: a.JWT.RolesClaim,
			Leeway:     a.JWT.Leeway.D(),
		}, auth.NewStaticKeyProvider([]byte(a.JWT.Secret))))
	}
	if len(auths) == 1 {
		return auths[0]
	}
	return auth.NewCompositeAuthenticator(auths...)
}

// Guard returns the guard for one route, or nil when auth is off.
func (a AuthConfig) Guard(namespace, route string, logger observe.Logger) *auth.Guard {
	authn := a.Authenticator()
	if authn == nil {
		return nil
	}
	g := &auth.Guard{
		Authenticator:  authn,
		AllowAnonymous: a.AllowAnonymous,
		Namespace:      namespace,
		Route:          route,
		Logger:         logger,
	}
	if len(a.RBAC.Roles) > 0 {
		g.Authorizer = auth.NewSimpleRBACAuthorizer(a.RBAC)
	}
	return g
}
