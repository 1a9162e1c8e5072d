// Package endpoint runs REST requests through a cached middleware pipeline.
//
// An Endpoint owns one route. For every request it:
//
//  1. fingerprints the request parameters into a cache key,
//  2. looks the key up in the attached cache (if any),
//  3. runs the middleware chain in registration order, each middleware
//     wrapping the rest and free to return early,
//  4. calls the handler when the cache had nothing,
//  5. stores structured handler results under the key and answers 200.
//
// A handler or middleware that returns a *Response has the final word: the
// response is passed through as is and never cached.
//
// Routing is delegated to a Router. MuxRouter mounts endpoints on an
// http.ServeMux, evaluates the permission predicate and the argument schema
// before the pipeline runs, and writes JSON responses.
package endpoint
