// Package rbac gates console operations on operator roles. Permissions are
// flat strings ("user.view", "user.manage") attached to role names.
package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const rbacModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act
`

type Permission string

const (
	PermUserView   Permission = "user.view"
	PermUserManage Permission = "user.manage"
)

type Role struct {
	Name        string
	Permissions []Permission
}

// Policy wraps a casbin enforcer over an in-memory permission table.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy(roles []Role) (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for _, r := range roles {
		for _, p := range r.Permissions {
			if _, err := e.AddPolicy(r.Name, string(p)); err != nil {
				return nil, fmt.Errorf("rbac policy %s/%s: %w", r.Name, p, err)
			}
		}
	}
	return &Policy{enforcer: e}, nil
}

// DefaultRoles is the permission table seeded at bootstrap.
func DefaultRoles() []Role {
	return []Role{
		{Name: "admin", Permissions: []Permission{PermUserView, PermUserManage}},
		{Name: "ops", Permissions: []Permission{PermUserView, PermUserManage}},
		{Name: "auditor", Permissions: []Permission{PermUserView}},
	}
}

// Allowed reports whether any of the roles carries the permission.
func (p *Policy) Allowed(roles []string, perm Permission) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	for _, role := range roles {
		ok, err := p.enforcer.Enforce(role, string(perm))
		if err == nil && ok {
			return true
		}
	}
	return false
}

// PermissionsForRoles returns the union of permissions for the given roles.
func (p *Policy) PermissionsForRoles(roles []string) []Permission {
	if p == nil || p.enforcer == nil {
		return nil
	}
	seen := map[Permission]struct{}{}
	var out []Permission
	for _, role := range roles {
		policies, err := p.enforcer.GetFilteredPolicy(0, role)
		if err != nil {
			continue
		}
		for _, rule := range policies {
			if len(rule) < 2 {
				continue
			}
			perm := Permission(rule[1])
			if _, ok := seen[perm]; ok {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}
