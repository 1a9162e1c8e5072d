package auth

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/restops/endpoint"
	"github.com/jonwraymond/restops/observe"
)

// CodeNotLoggedIn is the error code for requests without valid credentials.
const CodeNotLoggedIn = "rest_not_logged_in"

// Guard combines authentication and authorization for one route.
type Guard struct {
	// Authenticator is required.
	Authenticator Authenticator

	// Authorizer defaults to AllowAllAuthorizer.
	Authorizer Authorizer

	// AllowAnonymous lets callers without credentials through as
	// AnonymousIdentity. Presented but invalid credentials are still refused.
	AllowAnonymous bool

	// Namespace and Route name the guarded route for authorization.
	Namespace string
	Route     string

	Logger observe.Logger
}

func (g Guard) resource() string {
	return observe.RouteMeta{Namespace: g.Namespace, Route: g.Route}.ID()
}

func (g Guard) logger() observe.Logger {
	if g.Logger == nil {
		return observe.NopLogger()
	}
	return g.Logger
}

// Identify authenticates req. It returns ErrMissingCredentials,
// ErrInvalidCredentials, ErrTokenExpired or ErrTokenMalformed for rejected
// callers, and other errors for authenticator failures.
func (g Guard) Identify(req *endpoint.Request) (*Identity, error) {
	ctx := req.Context()
	areq := NewAuthRequest(req, g.resource())

	if !g.Authenticator.Supports(ctx, areq) {
		if g.AllowAnonymous {
			return AnonymousIdentity(), nil
		}
		return nil, ErrMissingCredentials
	}
	result, err := g.Authenticator.Authenticate(ctx, areq)
	if err != nil {
		return nil, err
	}
	if !result.Authenticated {
		return nil, result.Error
	}
	return result.Identity, nil
}

// Check authenticates and authorizes req.
func (g Guard) Check(req *endpoint.Request) (*Identity, error) {
	id, err := g.Identify(req)
	if err != nil {
		return nil, err
	}
	authz := g.Authorizer
	if authz == nil {
		authz = AllowAllAuthorizer{}
	}
	err = authz.Authorize(req.Context(), &AuthzRequest{
		Subject:  id,
		Resource: g.resource(),
		Action:   req.Method(),
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// Permission returns a predicate for endpoint.Config.Permission that admits
// requests passing Check. Refused callers get the router's 403 and the
// identity is not kept; use Middleware when handlers need it.
func Permission(g Guard) endpoint.PermissionFunc {
	return func(req *endpoint.Request) bool {
		_, err := g.Check(req)
		if err != nil {
			g.logger().Debug(req.Context(), "permission denied",
				observe.Field{Key: "route", Value: g.resource()},
				observe.Field{Key: "error", Value: err.Error()})
			return false
		}
		return true
	}
}

// Middleware runs Check once per request and attaches the caller's identity
// to the request context, where handlers read it with IdentityFromContext.
// Callers without valid credentials get a 401 unless the guard allows
// anonymous access; callers the authorizer refuses get a 403.
func Middleware(g Guard) endpoint.Middleware {
	return func(req *endpoint.Request, next endpoint.Next) (*endpoint.Response, error) {
		id, err := g.Check(req)
		switch {
		case err == nil:
			return next(req.WithContext(WithIdentity(req.Context(), id)))
		case isCredentialError(err):
			return nil, &endpoint.Error{
				Status:  http.StatusUnauthorized,
				Code:    CodeNotLoggedIn,
				Message: "you are not currently logged in",
				Err:     err,
			}
		case errors.Is(err, ErrForbidden):
			g.logger().Debug(req.Context(), "permission denied",
				observe.Field{Key: "route", Value: g.resource()},
				observe.Field{Key: "error", Value: err.Error()})
			return nil, &endpoint.Error{
				Status:  http.StatusForbidden,
				Code:    endpoint.CodeForbidden,
				Message: "sorry, you are not allowed to do that",
				Err:     err,
			}
		}
		return nil, err
	}
}

func isCredentialError(err error) bool {
	for _, target := range []error{ErrMissingCredentials, ErrInvalidCredentials, ErrTokenExpired, ErrTokenMalformed} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
