package auth

import "context"

// CompositeAuthenticator tries several authenticators in order, skipping
// those that do not support the request.
type CompositeAuthenticator struct {
	Authenticators []Authenticator

	// StopOnFirst returns the first success without running the rest.
	// Default: true
	StopOnFirst bool
}

// NewCompositeAuthenticator creates a composite authenticator.
func NewCompositeAuthenticator(auths ...Authenticator) *CompositeAuthenticator {
	return &CompositeAuthenticator{Authenticators: auths, StopOnFirst: true}
}

func (c *CompositeAuthenticator) Name() string {
	return "composite"
}

// Supports reports whether any member supports the request.
func (c *CompositeAuthenticator) Supports(ctx context.Context, req *AuthRequest) bool {
	for _, a := range c.Authenticators {
		if a.Supports(ctx, req) {
			return true
		}
	}
	return false
}

// Authenticate returns the first success, or the last failure when every
// supporting member fails. Internal errors stop the walk.
func (c *CompositeAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	var last, first *AuthResult
	for _, a := range c.Authenticators {
		if !a.Supports(ctx, req) {
			continue
		}
		result, err := a.Authenticate(ctx, req)
		if err != nil {
			return nil, err
		}
		last = result
		if result.Authenticated {
			if c.StopOnFirst {
				return result, nil
			}
			if first == nil {
				first = result
			}
		}
	}
	switch {
	case first != nil:
		return first, nil
	case last != nil:
		return last, nil
	}
	return AuthFailure(ErrMissingCredentials, ""), nil
}

// Ensure CompositeAuthenticator implements Authenticator
var _ Authenticator = (*CompositeAuthenticator)(nil)
