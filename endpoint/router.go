package endpoint

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/restops/observe"
)

// DefaultPrefix is the path segment MuxRouter mounts every namespace under.
const DefaultPrefix = "api"

// Route is what an endpoint hands to a Router.
type Route struct {
	Namespace  string
	Path       string
	Methods    []string
	Handler    Next
	Permission PermissionFunc
	Args       map[string]Arg
}

// Router mounts routes.
//
// Contract:
//   - Permission: a false predicate means the handler is never called.
//   - Args: missing required parameters are rejected and defaults filled
//     before the handler runs.
type Router interface {
	Register(rt Route) error
}

// RouterOption configures a MuxRouter.
type RouterOption func(*MuxRouter)

// WithPrefix sets the path prefix. An empty prefix mounts namespaces at the
// root.
func WithPrefix(prefix string) RouterOption {
	return func(r *MuxRouter) { r.prefix = strings.Trim(prefix, "/") }
}

// WithRouterLogger sets the logger used for handler failures.
func WithRouterLogger(l observe.Logger) RouterOption {
	return func(r *MuxRouter) {
		if l != nil {
			r.logger = l
		}
	}
}

// MuxRouter is a Router over http.ServeMux that speaks JSON.
type MuxRouter struct {
	mux    *http.ServeMux
	prefix string
	logger observe.Logger

	mu       sync.Mutex
	patterns map[string]bool
	routes   []Route
}

// NewMuxRouter creates a router.
func NewMuxRouter(opts ...RouterOption) *MuxRouter {
	r := &MuxRouter{
		mux:      http.NewServeMux(),
		prefix:   DefaultPrefix,
		logger:   observe.NopLogger(),
		patterns: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the URL path a namespace and route are mounted at.
func (r *MuxRouter) Path(namespace, route string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.prefix, namespace, route} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return "/" + strings.Join(parts, "/")
}

// Register mounts rt, one ServeMux pattern per method.
func (r *MuxRouter) Register(rt Route) (err error) {
	if rt.Handler == nil {
		return ErrNilHandler
	}
	methods := rt.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodGet}
	}
	path := r.Path(rt.Namespace, rt.Path)
	pathKeys := pathWildcards(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range methods {
		if r.patterns[m+" "+path] {
			return fmt.Errorf("%w: %s %s", ErrRouteExists, m, path)
		}
	}

	// ServeMux panics on conflicting patterns.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrRouteExists, p)
		}
	}()

	h := r.handler(rt, pathKeys)
	for _, m := range methods {
		pattern := m + " " + path
		r.mux.Handle(pattern, h)
		r.patterns[pattern] = true
	}
	r.routes = append(r.routes, rt)
	return nil
}

// Routes returns the registered routes in registration order.
func (r *MuxRouter) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.routes)
}

// ServeHTTP implements http.Handler.
func (r *MuxRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *MuxRouter) handler(rt Route, pathKeys []string) http.Handler {
	permission := rt.Permission
	if permission == nil {
		permission = AllowAll
	}
	return http.HandlerFunc(func(w http.ResponseWriter, hr *http.Request) {
		id := hr.Header.Get(observe.RequestIDHeader)
		if id == "" {
			id = observe.NewRequestID()
		}
		hr = hr.WithContext(observe.WithRequestID(hr.Context(), id))
		w.Header().Set(observe.RequestIDHeader, id)

		params, err := ParseParams(hr, pathKeys)
		if err != nil {
			r.writeError(w, hr, asHTTPError(err))
			return
		}
		req := NewRequest(hr, params)

		if !permission(req) {
			r.writeError(w, hr, NewError(http.StatusForbidden, CodeForbidden, "sorry, you are not allowed to do that"))
			return
		}
		if err := applyArgs(rt.Args, params); err != nil {
			r.writeError(w, hr, asHTTPError(err))
			return
		}

		resp, err := rt.Handler(req)
		if err != nil {
			herr := asHTTPError(err)
			if herr.Status >= http.StatusInternalServerError {
				r.logger.Error(hr.Context(), "handler failed",
					observe.Field{Key: "path", Value: hr.URL.Path},
					observe.Field{Key: "error", Value: err.Error()})
			}
			r.writeError(w, hr, herr)
			return
		}
		writeResponse(w, hr, resp)
	})
}

func (r *MuxRouter) writeError(w http.ResponseWriter, hr *http.Request, e *Error) {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	writeJSON(w, hr, e.Status, errorBody{Code: e.Code, Message: msg, Data: errorBodyExtra{Status: e.Status}})
}

func writeResponse(w http.ResponseWriter, hr *http.Request, resp *Response) {
	for name, values := range resp.Headers() {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	switch resp.CacheStatus() {
	case observe.CacheHit:
		w.Header().Set(CacheHeader, "HIT")
	case observe.CacheMiss:
		w.Header().Set(CacheHeader, "MISS")
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, hr, status, resp.Data)
}

func writeJSON(w http.ResponseWriter, hr *http.Request, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	if hr.Method == http.MethodHead || status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// applyArgs rejects missing required parameters, validates present ones and
// fills defaults. Names are processed in sorted order.
func applyArgs(args map[string]Arg, params *Params) error {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		arg := args[name]
		v, ok := params.Get(name)
		if !ok {
			if arg.Required {
				return fmt.Errorf("%w: %s", ErrMissingParameter, name)
			}
			if arg.Default != nil {
				params.Set(name, arg.Default)
			}
			continue
		}
		if arg.Validate != nil {
			if err := arg.Validate(v); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidParameter, name, err)
			}
		}
	}
	return nil
}

// pathWildcards returns the names of the {wildcards} in a ServeMux path.
func pathWildcards(path string) []string {
	var keys []string
	for _, seg := range strings.Split(path, "/") {
		if len(seg) < 3 || seg[0] != '{' || seg[len(seg)-1] != '}' {
			continue
		}
		name := strings.TrimSuffix(seg[1:len(seg)-1], "...")
		if name == "$" || name == "" {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// Ensure MuxRouter implements Router
var _ Router = (*MuxRouter)(nil)
