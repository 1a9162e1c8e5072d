// Package auth gates REST endpoints on who is calling.
//
// Authenticators turn request credentials (an API key header or a bearer
// JWT) into an Identity. Authorizers decide whether that identity may call a
// route with a method; SimpleRBACAuthorizer does this from a role table.
// Permission combines both into an endpoint.PermissionFunc, and Middleware
// attaches the identity to the request context for handlers.
package auth
