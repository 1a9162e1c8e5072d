package endpoint

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration errors returned by New.
var (
	ErrMissingRoute     = errors.New("endpoint: route is required")
	ErrNilHandler       = errors.New("endpoint: handler is nil")
	ErrUnsupportedMode  = errors.New("endpoint: unsupported serialization mode")
	ErrInvalidTTL       = errors.New("endpoint: ttl must not be negative")
	ErrConflictingTTL   = errors.New("endpoint: ttl and expires-at are mutually exclusive")
	ErrAlreadyMounted   = errors.New("endpoint: endpoint is already registered")
	ErrRouteExists      = errors.New("endpoint: route already registered")
	ErrInvalidMethod    = errors.New("endpoint: invalid http method")
	ErrMissingParameter = errors.New("endpoint: missing required parameter")
	ErrInvalidParameter = errors.New("endpoint: invalid parameter")
	ErrInvalidBody      = errors.New("endpoint: request body is not valid JSON")
	ErrInvalidQuery     = errors.New("endpoint: malformed query string")
)

// Error is an error carrying an HTTP status and a machine-readable code.
// Handlers and middlewares return it to choose the status the router
// answers with; any other error becomes a 500.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// NewError creates an Error.
func NewError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes written in JSON error bodies.
const (
	CodeForbidden     = "rest_forbidden"
	CodeMissingParam  = "rest_missing_callback_param"
	CodeInvalidParam  = "rest_invalid_param"
	CodeInvalidJSON   = "rest_invalid_json"
	CodeInternalError = "rest_internal_error"
)

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    errorBodyExtra `json:"data"`
}

type errorBodyExtra struct {
	Status int `json:"status"`
}

// asHTTPError converts err into an *Error, defaulting to 500.
func asHTTPError(err error) *Error {
	var he *Error
	if errors.As(err, &he) {
		out := *he
		if out.Status == 0 {
			out.Status = http.StatusInternalServerError
		}
		if out.Code == "" {
			out.Code = CodeInternalError
		}
		return &out
	}
	switch {
	case errors.Is(err, ErrMissingParameter):
		return &Error{Status: http.StatusBadRequest, Code: CodeMissingParam, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, ErrInvalidQuery):
		return &Error{Status: http.StatusBadRequest, Code: CodeInvalidParam, Message: err.Error(), Err: err}
	case errors.Is(err, ErrInvalidBody):
		return &Error{Status: http.StatusBadRequest, Code: CodeInvalidJSON, Message: err.Error(), Err: err}
	}
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternalError, Message: "internal server error", Err: err}
}
