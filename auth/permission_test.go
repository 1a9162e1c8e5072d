package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonwraymond/restops/endpoint"
)

func testGuard() Guard {
	store := NewMemoryAPIKeyStore()
	store.AddKey("k-admin", "admin-key", "root", "admin")
	store.AddKey("k-view", "viewer-key", "val", "viewer")
	return Guard{
		Authenticator: NewAPIKeyAuthenticator(APIKeyConfig{}, store),
		Authorizer:    testRBAC(),
		Namespace:     "blog/v1",
		Route:         "posts",
	}
}

func TestGuard_Check(t *testing.T) {
	g := testGuard()

	tests := []struct {
		name    string
		req     *endpoint.Request
		want    string
		wantErr error
	}{
		{"admin writes", endpointReq(http.MethodPost, "X-API-Key", "admin-key"), "root", nil},
		{"viewer reads", endpointReq(http.MethodGet, "X-API-Key", "viewer-key"), "val", nil},
		{"viewer cannot write", endpointReq(http.MethodPost, "X-API-Key", "viewer-key"), "", ErrForbidden},
		{"unknown key", endpointReq(http.MethodGet, "X-API-Key", "bogus"), "", ErrInvalidCredentials},
		{"no key", endpointReq(http.MethodGet), "", ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := g.Check(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Check() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || id.Principal != tt.want {
				t.Fatalf("Check() = %v, %v, want %s", id, err, tt.want)
			}
		})
	}
}

func TestGuard_AllowAnonymous(t *testing.T) {
	g := testGuard()
	g.AllowAnonymous = true

	id, err := g.Check(endpointReq(http.MethodGet))
	if err != nil || !id.IsAnonymous() {
		t.Fatalf("anonymous GET: %v, %v", id, err)
	}
	if _, err := g.Check(endpointReq(http.MethodGet, "X-API-Key", "bogus")); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad credentials must still fail, got %v", err)
	}
}

func TestGuard_DefaultAuthorizer(t *testing.T) {
	g := testGuard()
	g.Authorizer = nil
	if _, err := g.Check(endpointReq(http.MethodDelete, "X-API-Key", "viewer-key")); err != nil {
		t.Fatalf("nil authorizer should allow all, got %v", err)
	}
}

// countingAuthenticator records how often each request is authenticated.
type countingAuthenticator struct {
	Authenticator
	calls int
}

func (c *countingAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	c.calls++
	return c.Authenticator.Authenticate(ctx, req)
}

func guardedRouter(t *testing.T, cfg endpoint.Config) *endpoint.MuxRouter {
	t.Helper()
	router := endpoint.NewMuxRouter()
	cfg.Namespace = "blog/v1"
	cfg.Route = "posts"
	cfg.Methods = []string{http.MethodGet, http.MethodPost}
	if cfg.Handler == nil {
		cfg.Handler = func(req *endpoint.Request) (any, error) {
			return map[string]any{"principal": PrincipalFromContext(req.Context())}, nil
		}
	}
	if _, err := endpoint.Create(router, cfg); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return router
}

func sendKey(router http.Handler, method, key string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, "/api/blog/v1/posts", nil)
	if key != "" {
		r.Header.Set("X-API-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestPermission_ThroughRouter(t *testing.T) {
	g := testGuard()
	router := guardedRouter(t, endpoint.Config{
		Permission: Permission(g),
		Handler:    func(*endpoint.Request) (any, error) { return "ok", nil },
	})

	if w := sendKey(router, http.MethodGet, ""); w.Code != http.StatusForbidden {
		t.Errorf("no key: status = %d, want 403", w.Code)
	}
	if w := sendKey(router, http.MethodPost, "viewer-key"); w.Code != http.StatusForbidden {
		t.Errorf("viewer POST: status = %d, want 403", w.Code)
	}
	if w := sendKey(router, http.MethodPost, "admin-key"); w.Code != http.StatusOK {
		t.Errorf("admin POST: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestMiddleware_ThroughRouter(t *testing.T) {
	g := testGuard()
	counter := &countingAuthenticator{Authenticator: g.Authenticator}
	g.Authenticator = counter
	router := guardedRouter(t, endpoint.Config{Middlewares: []endpoint.Middleware{Middleware(g)}})

	w := sendKey(router, http.MethodGet, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", w.Code)
	}
	if body := decodeJSON(t, w); body["code"] != CodeNotLoggedIn {
		t.Errorf("no key: code = %v", body["code"])
	}

	w = sendKey(router, http.MethodPost, "viewer-key")
	if w.Code != http.StatusForbidden {
		t.Errorf("viewer POST: status = %d, want 403", w.Code)
	}
	if body := decodeJSON(t, w); body["code"] != endpoint.CodeForbidden {
		t.Errorf("viewer POST: code = %v", body["code"])
	}

	counter.calls = 0
	w = sendKey(router, http.MethodPost, "admin-key")
	if w.Code != http.StatusOK {
		t.Fatalf("admin POST: status = %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeJSON(t, w); body["principal"] != "root" {
		t.Errorf("principal = %v, want root", body["principal"])
	}
	if counter.calls != 1 {
		t.Errorf("Authenticate ran %d times for one request, want 1", counter.calls)
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestMiddleware_Unauthenticated(t *testing.T) {
	mw := Middleware(testGuard())
	called := false
	_, err := mw(endpointReq(http.MethodGet), func(*endpoint.Request) (*endpoint.Response, error) {
		called = true
		return nil, nil
	})
	var herr *endpoint.Error
	if !errors.As(err, &herr) || herr.Status != http.StatusUnauthorized || herr.Code != CodeNotLoggedIn {
		t.Fatalf("err = %v, want 401 %s", err, CodeNotLoggedIn)
	}
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("err should wrap ErrMissingCredentials")
	}
	if called {
		t.Error("next ran for an unauthenticated request")
	}
}

func TestMiddleware_StoreFailureIsNotUnauthorized(t *testing.T) {
	boom := errors.New("store down")
	g := Guard{Authenticator: NewAPIKeyAuthenticator(APIKeyConfig{}, failingStore{err: boom})}

	_, err := Middleware(g)(endpointReq(http.MethodGet, "X-API-Key", "k"), func(*endpoint.Request) (*endpoint.Response, error) {
		return nil, nil
	})
	var herr *endpoint.Error
	if errors.As(err, &herr) {
		t.Fatalf("store failure reported as %d", herr.Status)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
