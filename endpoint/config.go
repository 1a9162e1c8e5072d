package endpoint

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/restops/cache"
	"github.com/jonwraymond/restops/observe"
)

// DefaultTTL is the cache lifetime used when Config sets neither TTL nor
// ExpiresAt.
const DefaultTTL = time.Hour

// HandlerFunc produces the result for a request. Returning a *Response ends
// the request with that response; any other value is cached (when a cache is
// attached) and answered with status 200.
type HandlerFunc func(*Request) (any, error)

// Next continues the pipeline.
type Next func(*Request) (*Response, error)

// Middleware wraps the rest of the pipeline. It may call next and decorate
// the result, or return a response of its own without calling next.
type Middleware func(req *Request, next Next) (*Response, error)

// PermissionFunc decides whether a request may reach the pipeline.
type PermissionFunc func(*Request) bool

// AllowAll is the default permission predicate.
func AllowAll(*Request) bool { return true }

// Arg describes one accepted request parameter.
type Arg struct {
	Required    bool
	Default     any
	Description string
	// Validate, when set, is called with the parameter value. A non-nil
	// error rejects the request with 400.
	Validate func(any) error
}

// Config describes an endpoint. It is copied by New and not retained.
type Config struct {
	Namespace string
	Route     string
	// Methods defaults to GET.
	Methods    []string
	Handler    HandlerFunc
	Permission PermissionFunc
	Args       map[string]Arg

	Middlewares []Middleware

	// Cache enables response caching when non-nil.
	Cache         cache.Cache
	Keyer         cache.Keyer
	Serialization Serialization
	// TTL is the cache lifetime. Zero means DefaultTTL.
	TTL time.Duration
	// ExpiresAt, when set, replaces TTL with the whole seconds remaining
	// until that instant, measured once by New.
	ExpiresAt time.Time

	Clock    cache.Clock
	Logger   observe.Logger
	Observer *observe.Middleware
}

// validate checks the config and fills defaults in place.
func (c *Config) validate() error {
	if strings.Trim(c.Route, "/") == "" && strings.Trim(c.Namespace, "/") == "" {
		return ErrMissingRoute
	}
	if c.Handler == nil {
		return ErrNilHandler
	}
	if c.TTL < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTTL, c.TTL)
	}
	if c.TTL != 0 && !c.ExpiresAt.IsZero() {
		return ErrConflictingTTL
	}

	if len(c.Methods) == 0 {
		c.Methods = []string{http.MethodGet}
	}
	methods := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if !validMethod(m) {
			return fmt.Errorf("%w: %q", ErrInvalidMethod, m)
		}
		methods = append(methods, m)
	}
	c.Methods = methods

	if c.Permission == nil {
		c.Permission = AllowAll
	}
	if c.Keyer == nil {
		c.Keyer = cache.NewDefaultKeyer()
	}
	if c.Clock == nil {
		c.Clock = cache.SystemClock
	}
	if c.Observer == nil {
		c.Observer = observe.NoopMiddleware()
	}
	if c.Logger == nil {
		c.Logger = c.Observer.Logger()
	}
	return nil
}

// cacheTTL resolves the lifetime passed to Cache.Set. An ExpiresAt already
// reached yields a negative TTL, which makes writes remove the entry.
func (c *Config) cacheTTL() time.Duration {
	if !c.ExpiresAt.IsZero() {
		ttl := TTLUntil(c.ExpiresAt, c.Clock)
		if ttl == 0 {
			return -time.Second
		}
		return ttl
	}
	if c.TTL == 0 {
		return DefaultTTL
	}
	return c.TTL
}

// TTLUntil returns the whole seconds from now until t, floored at zero.
// A nil clock means the system clock.
func TTLUntil(t time.Time, clock cache.Clock) time.Duration {
	if clock == nil {
		clock = cache.SystemClock
	}
	d := t.Sub(clock.Now()).Truncate(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func validMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
