package auth

import (
	"net/http"
	"net/http/httptest"

	"github.com/jonwraymond/restops/endpoint"
)

// headerReq builds an AuthRequest from header name/value pairs.
func headerReq(kv ...string) *AuthRequest {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return &AuthRequest{Header: h, Resource: "blog/v1/posts", Method: http.MethodGet}
}

func endpointReq(method string, kv ...string) *endpoint.Request {
	r := httptest.NewRequest(method, "/api/blog/v1/posts", nil)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Header.Set(kv[i], kv[i+1])
	}
	return endpoint.NewRequest(r, nil)
}
