package auth

import (
	"context"
	"fmt"
)

// Authorizer decides whether an identity may call a route.
type Authorizer interface {
	// Authorize returns nil if permitted, or an error (typically *AuthzError).
	Authorize(ctx context.Context, req *AuthzRequest) error

	Name() string
}

// AuthzRequest describes one authorization decision.
type AuthzRequest struct {
	Subject *Identity

	// Resource is the route id, e.g. "blog/v1/posts".
	Resource string

	// Action is the HTTP method.
	Action string
}

// AuthzError is an authorization failure. It matches ErrForbidden.
type AuthzError struct {
	Subject  string
	Resource string
	Action   string
	Reason   string
	Cause    error
}

func (e *AuthzError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q resource=%q action=%q reason=%q",
		e.Subject, e.Resource, e.Action, e.Reason)
}

func (e *AuthzError) Unwrap() error {
	return e.Cause
}

func (e *AuthzError) Is(target error) bool {
	return target == ErrForbidden
}

func denied(req *AuthzRequest, reason string) *AuthzError {
	e := &AuthzError{Resource: req.Resource, Action: req.Action, Reason: reason}
	if req.Subject != nil {
		e.Subject = req.Subject.Principal
	}
	return e
}

// AllowAllAuthorizer permits all requests.
type AllowAllAuthorizer struct{}

func (AllowAllAuthorizer) Authorize(context.Context, *AuthzRequest) error { return nil }
func (AllowAllAuthorizer) Name() string                                   { return "allow_all" }

// DenyAllAuthorizer denies all requests.
type DenyAllAuthorizer struct{}

func (DenyAllAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	return denied(req, "all requests denied")
}

func (DenyAllAuthorizer) Name() string { return "deny_all" }

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req *AuthzRequest) error

func (f AuthorizerFunc) Authorize(ctx context.Context, req *AuthzRequest) error {
	return f(ctx, req)
}

func (f AuthorizerFunc) Name() string { return "func" }

var (
	_ Authorizer = AllowAllAuthorizer{}
	_ Authorizer = DenyAllAuthorizer{}
	_ Authorizer = AuthorizerFunc(nil)
)
