package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/jonwraymond/restops/endpoint"
)

// CORS response headers.
const (
	HeaderAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderMaxAge           = "Access-Control-Max-Age"
	HeaderAllowCredentials = "Access-Control-Allow-Credentials"
)

// DefaultCORSMaxAge is the preflight cache lifetime in seconds.
const DefaultCORSMaxAge = 3600

// CORSConfig configures the CORS middleware. Zero fields take the defaults:
// every origin, GET/POST/PUT/DELETE/OPTIONS, Content-Type and
// Authorization, and a one hour max age.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// DefaultCORSConfig returns the default CORS settings.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         DefaultCORSMaxAge,
	}
}

func (c CORSConfig) withDefaults() CORSConfig {
	def := DefaultCORSConfig()
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = def.AllowedOrigins
	}
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = def.AllowedMethods
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = def.AllowedHeaders
	}
	if c.MaxAge <= 0 {
		c.MaxAge = def.MaxAge
	}
	return c
}

// CORS returns a middleware that decorates responses with CORS headers.
//
// The rest of the pipeline runs first; an error from it is returned
// untouched. The allow-origin header echoes the request Origin when the
// allow-list is exactly ["*"] or contains it. Preflight (OPTIONS) requests
// also get the allowed methods, headers and max age. Credentials are always
// allowed.
func CORS(cfg CORSConfig) endpoint.Middleware {
	cfg = cfg.withDefaults()
	wildcard := len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*"
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)
	origins := slices.Clone(cfg.AllowedOrigins)

	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		resp, err := next(req)
		if err != nil {
			return nil, err
		}

		if origin := req.Header("Origin"); origin != "" && (wildcard || slices.Contains(origins, origin)) {
			resp.Header(HeaderAllowOrigin, origin)
		}
		if req.Method() == http.MethodOptions {
			resp.Header(HeaderAllowMethods, methods)
			resp.Header(HeaderAllowHeaders, headers)
			resp.Header(HeaderMaxAge, maxAge)
		}
		resp.Header(HeaderAllowCredentials, "true")
		return resp, nil
	}
}
