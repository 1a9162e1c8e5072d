package auth

import (
	"slices"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAPIKey    AuthMethod = "api_key"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity is an authenticated caller.
type Identity struct {
	// Principal is the unique identifier (user ID, key owner).
	Principal string

	// TenantID is the tenant this identity belongs to, if any.
	TenantID string

	Roles       []string
	Permissions []string

	Method AuthMethod

	// Claims holds token claims or key metadata.
	Claims map[string]any

	// ExpiresAt is zero for identities that never expire.
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// HasPermission reports whether the identity carries perm.
func (id *Identity) HasPermission(perm string) bool {
	return slices.Contains(id.Permissions, perm)
}

// ExpiredAt reports whether the identity has expired at now.
func (id *Identity) ExpiredAt(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

// IsExpired reports whether the identity has expired.
func (id *Identity) IsExpired() bool {
	return id.ExpiredAt(time.Now())
}

// IsAnonymous reports whether the identity stands for an unauthenticated
// caller.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity returns the identity used for callers that presented no
// credentials.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
