package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/restops/endpoint"
)

// Timeout bounds the rest of the pipeline to d. The request context carries
// the deadline; when it passes first the request fails with 503
// rest_timeout and the late result is discarded.
func Timeout(d time.Duration) endpoint.Middleware {
	if d <= 0 {
		d = 30 * time.Second
	}
	type result struct {
		resp *endpoint.Response
		err  error
	}

	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		ctx, cancel := context.WithTimeout(req.Context(), d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			resp, err := next(req.WithContext(ctx))
			done <- result{resp, err}
		}()

		select {
		case r := <-done:
			return r.resp, r.err
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, rejected(http.StatusServiceUnavailable, CodeTimeout, "request timed out", ErrTimeout)
			}
			return nil, ctx.Err()
		}
	}
}
