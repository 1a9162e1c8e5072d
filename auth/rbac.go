package auth

import (
	"context"
	"slices"
	"strings"
)

// RBACConfig configures the simple RBAC authorizer.
type RBACConfig struct {
	Roles map[string]RoleConfig `yaml:"roles"`

	// DefaultRole applies to identities without roles.
	DefaultRole string `yaml:"default_role"`
}

// RoleConfig lists what one role may do.
//
// Route patterns match route ids ("blog/v1/posts") and may end in "*".
// Methods are HTTP methods or "*".
type RoleConfig struct {
	// Permissions are "<method>" or "<route>:<method>" grants,
	// e.g. "GET" or "blog/v1/*:POST".
	Permissions []string `yaml:"permissions"`

	Inherits []string `yaml:"inherits"`

	AllowedRoutes  []string `yaml:"allowed_routes"`
	DeniedRoutes   []string `yaml:"denied_routes"`
	AllowedMethods []string `yaml:"allowed_methods"`
}

// SimpleRBACAuthorizer grants access from a static role table.
type SimpleRBACAuthorizer struct {
	config RBACConfig
}

// NewSimpleRBACAuthorizer creates a new simple RBAC authorizer.
func NewSimpleRBACAuthorizer(config RBACConfig) *SimpleRBACAuthorizer {
	return &SimpleRBACAuthorizer{config: config}
}

func (a *SimpleRBACAuthorizer) Name() string {
	return "simple_rbac"
}

// Authorize permits the request when any of the subject's roles, including
// inherited ones, permits it.
func (a *SimpleRBACAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil {
		return denied(req, "no identity provided")
	}
	for _, name := range a.collectRoles(req.Subject) {
		role, ok := a.config.Roles[name]
		if ok && rolePermits(role, req) {
			return nil
		}
	}
	return denied(req, "no role permits this action")
}

// collectRoles walks inheritance breadth first, visiting each role once.
func (a *SimpleRBACAuthorizer) collectRoles(subject *Identity) []string {
	queue := slices.Clone(subject.Roles)
	if len(queue) == 0 && a.config.DefaultRole != "" {
		queue = append(queue, a.config.DefaultRole)
	}

	seen := make(map[string]bool)
	var out []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		out = append(out, current)
		if role, ok := a.config.Roles[current]; ok {
			queue = append(queue, role.Inherits...)
		}
	}
	return out
}

func rolePermits(role RoleConfig, req *AuthzRequest) bool {
	// Deny wins.
	for _, p := range role.DeniedRoutes {
		if matchPattern(p, req.Resource) {
			return false
		}
	}
	if len(role.AllowedRoutes) > 0 && !slices.ContainsFunc(role.AllowedRoutes, func(p string) bool {
		return matchPattern(p, req.Resource)
	}) {
		return false
	}
	if len(role.AllowedMethods) > 0 && !slices.ContainsFunc(role.AllowedMethods, func(m string) bool {
		return m == "*" || strings.EqualFold(m, req.Action)
	}) {
		return false
	}

	for _, perm := range role.Permissions {
		if matchPermission(perm, req) {
			return true
		}
	}
	// An allow-list that passed grants access on its own.
	return len(role.AllowedRoutes) > 0
}

// matchPattern matches value against pattern; "*" alone matches anything
// and a trailing "*" matches a prefix.
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(value, prefix)
	}
	return pattern == value
}

// matchPermission checks "<method>" and "<route>:<method>" grants.
func matchPermission(perm string, req *AuthzRequest) bool {
	route, method, scoped := strings.Cut(perm, ":")
	if !scoped {
		method, route = route, "*"
	}
	methodMatch := method == "*" || strings.EqualFold(method, req.Action)
	return methodMatch && matchPattern(route, req.Resource)
}

// Ensure SimpleRBACAuthorizer implements Authorizer
var _ Authorizer = (*SimpleRBACAuthorizer)(nil)
