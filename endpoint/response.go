package endpoint

import (
	"net/http"

	"github.com/jonwraymond/restops/observe"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

// Response is a final REST response.
type Response struct {
	Status int
	Data   any

	header http.Header
	cache  observe.CacheStatus
}

// NewResponse creates a response with the given payload and status.
func NewResponse(data any, status int) *Response {
	return &Response{Status: status, Data: data, header: make(http.Header)}
}

// Header sets a response header, replacing any existing values.
func (r *Response) Header(name, value string) {
	if r.header == nil {
		r.header = make(http.Header)
	}
	r.header.Set(name, value)
}

// Headers returns the response headers. The map is live.
func (r *Response) Headers() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

// CacheStatus reports how the pipeline's cache produced this response:
// CacheHit for a decoded cache entry, CacheMiss for a fresh handler result
// offered to the cache, CacheNone otherwise.
func (r *Response) CacheStatus() observe.CacheStatus {
	return r.cache
}
