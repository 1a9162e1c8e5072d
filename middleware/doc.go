// Package middleware provides endpoint middlewares: cross-origin headers,
// input sanitization, rate limiting, concurrency limiting and timeouts.
//
// All follow the endpoint.Middleware discipline: they receive the request
// and the rest of the pipeline, and either call through or fail.
package middleware
