package middleware

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/restops/endpoint"
)

// Sentinel errors carried inside the *endpoint.Error values these
// middlewares return.
var (
	ErrRateLimited = errors.New("middleware: rate limit exceeded")
	ErrOverloaded  = errors.New("middleware: concurrency limit reached")
	ErrTimeout     = errors.New("middleware: request timed out")
)

// Error codes for rejected requests.
const (
	CodeRateLimited = "rest_rate_limited"
	CodeOverloaded  = "rest_overloaded"
	CodeTimeout     = "rest_timeout"
)

func rejected(status int, code, message string, err error) *endpoint.Error {
	return &endpoint.Error{Status: status, Code: code, Message: message, Err: err}
}

func rateLimited() *endpoint.Error {
	return rejected(http.StatusTooManyRequests, CodeRateLimited, "too many requests", ErrRateLimited)
}
