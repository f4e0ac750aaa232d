package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// =============================================================================
// Resources and Actions
// =============================================================================

// Resources checked by the Authorizer.
const (
	ResourceAssets       = "assets"
	ResourceBookings     = "bookings"
	ResourceCustomFields = "custom_fields"
	ResourceCatalog      = "catalog"
)

// Actions checked by the Authorizer.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// =============================================================================
// Role Policy
// =============================================================================

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (p.act == "*" || r.act == p.act)
`

// Members fill in records; admins also shape the organization's schema
// and catalog. Owners inherit everything.
var rolePolicies = [][]string{
	{string(RoleMember), ResourceAssets, "*"},
	{string(RoleMember), ResourceBookings, "*"},
	{string(RoleMember), ResourceCustomFields, ActionRead},
	{string(RoleMember), ResourceCatalog, ActionRead},
	{string(RoleAdmin), ResourceCustomFields, ActionWrite},
	{string(RoleAdmin), ResourceCatalog, ActionWrite},
}

var roleInheritance = [][]string{
	{string(RoleAdmin), string(RoleMember)},
	{string(RoleOwner), string(RoleAdmin)},
}

// =============================================================================
// Authorizer
// =============================================================================

// Authorizer decides whether a caller's role permits an action on a resource.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds an Authorizer loaded with the built-in role policy.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("authz: load policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(roleInheritance); err != nil {
		return nil, fmt.Errorf("authz: load role inheritance: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Allow reports whether the caller may perform action on resource.
// Callers without a tenant are always denied.
func (a *Authorizer) Allow(ctx Context, resource, action string) bool {
	if !ctx.Authenticated || ctx.TenantID == "" {
		return false
	}
	role := ctx.Role
	if role == "" {
		role = RoleMember
	}
	ok, err := a.enforcer.Enforce(string(role), resource, action)
	return err == nil && ok
}
