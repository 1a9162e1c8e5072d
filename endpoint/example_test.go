package endpoint_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/jonwraymond/restops/cache"
	"github.com/jonwraymond/restops/endpoint"
)

func ExampleCreate() {
	router := endpoint.NewMuxRouter()

	_, err := endpoint.Create(router, endpoint.Config{
		Namespace:     "blog/v1",
		Route:         "posts",
		Cache:         cache.NewMemoryCache(),
		Serialization: endpoint.SerializeJSON,
		Handler: func(req *endpoint.Request) (any, error) {
			return map[string]any{"page": req.Params.String("page")}, nil
		},
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/blog/v1/posts?page=1", nil))
		fmt.Println(w.Code, w.Header().Get("X-Cache"), strings.TrimSpace(w.Body.String()))
	}
	// Output:
	// 200 MISS {"page":"1"}
	// 200 HIT {"page":"1"}
}

func ExampleEndpoint_Use() {
	e, _ := endpoint.New(endpoint.Config{
		Route: "hello",
		Handler: func(*endpoint.Request) (any, error) {
			return "world", nil
		},
	})

	_ = e.Use(func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		resp, err := next(req)
		if err == nil {
			resp.Header("X-Powered-By", "restops")
		}
		return resp, err
	})

	resp, _ := e.Handle(endpoint.NewRequest(httptest.NewRequest(http.MethodGet, "/api/hello", nil), nil))
	fmt.Println(resp.Status, resp.Data, resp.Headers().Get("X-Powered-By"))
	// Output:
	// 200 world restops
}
