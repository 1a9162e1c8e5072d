package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/restops/endpoint"
)

func okNext(req *endpoint.Request) (*endpoint.Response, error) {
	return endpoint.NewResponse(map[string]string{"ok": "yes"}, http.StatusOK), nil
}

func corsRequest(method, origin string) *endpoint.Request {
	r := httptest.NewRequest(method, "/api/blog/v1/posts", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return endpoint.NewRequest(r, nil)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://example.com"}})

	resp, err := mw(corsRequest(http.MethodGet, "https://example.com"), okNext)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", resp.Headers().Get(HeaderAllowOrigin))
	assert.Equal(t, "true", resp.Headers().Get(HeaderAllowCredentials))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"https://example.com"}})

	resp, err := mw(corsRequest(http.MethodGet, "https://evil.com"), okNext)
	require.NoError(t, err)
	assert.Empty(t, resp.Headers().Get(HeaderAllowOrigin))
	assert.Equal(t, "true", resp.Headers().Get(HeaderAllowCredentials))
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	mw := CORS(CORSConfig{})

	resp, err := mw(corsRequest(http.MethodGet, "https://anywhere.dev"), okNext)
	require.NoError(t, err)
	assert.Equal(t, "https://anywhere.dev", resp.Headers().Get(HeaderAllowOrigin))
}

// A "*" mixed with concrete origins is not a wildcard.
func TestCORS_StarInsideListIsLiteral(t *testing.T) {
	mw := CORS(CORSConfig{AllowedOrigins: []string{"*", "https://example.com"}})

	resp, err := mw(corsRequest(http.MethodGet, "https://other.com"), okNext)
	require.NoError(t, err)
	assert.Empty(t, resp.Headers().Get(HeaderAllowOrigin))
}

func TestCORS_NoOriginHeader(t *testing.T) {
	mw := CORS(CORSConfig{})

	resp, err := mw(corsRequest(http.MethodGet, ""), okNext)
	require.NoError(t, err)
	assert.Empty(t, resp.Headers().Get(HeaderAllowOrigin))
	assert.Equal(t, "true", resp.Headers().Get(HeaderAllowCredentials))
	assert.Empty(t, resp.Headers().Get(HeaderAllowMethods), "non-preflight must not carry preflight headers")
}

func TestCORS_PreflightDefaults(t *testing.T) {
	mw := CORS(CORSConfig{})

	resp, err := mw(corsRequest(http.MethodOptions, "https://example.com"), okNext)
	require.NoError(t, err)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", resp.Headers().Get(HeaderAllowMethods))
	assert.Equal(t, "Content-Type, Authorization", resp.Headers().Get(HeaderAllowHeaders))
	assert.Equal(t, "3600", resp.Headers().Get(HeaderMaxAge))
}

func TestCORS_PreflightConfigured(t *testing.T) {
	mw := CORS(CORSConfig{
		AllowedMethods: []string{"GET", "PATCH"},
		AllowedHeaders: []string{"X-Api-Key"},
		MaxAge:         600,
	})

	resp, err := mw(corsRequest(http.MethodOptions, ""), okNext)
	require.NoError(t, err)
	assert.Equal(t, "GET, PATCH", resp.Headers().Get(HeaderAllowMethods))
	assert.Equal(t, "X-Api-Key", resp.Headers().Get(HeaderAllowHeaders))
	assert.Equal(t, "600", resp.Headers().Get(HeaderMaxAge))
}

func TestCORS_CallsNextFirstAndPassesErrors(t *testing.T) {
	mw := CORS(CORSConfig{})
	boom := errors.New("boom")

	called := false
	resp, err := mw(corsRequest(http.MethodGet, "https://example.com"), func(*endpoint.Request) (*endpoint.Response, error) {
		called = true
		return nil, boom
	})
	assert.True(t, called)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, resp)
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 3600, cfg.MaxAge)
	assert.Len(t, cfg.AllowedMethods, 5)
}
