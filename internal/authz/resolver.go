package authz

import "log/slog"

// Actor is the authorization view of a user: canonical role plus the
// per-user permission matrices. Callers must normalize the role before
// building an Actor.
type Actor struct {
	ID    int64
	Role  Role
	Menu  MenuPermissions
	Admin AdminPermissions
}

// Requirement describes what a protected action demands. Any combination of
// fields may be set; an entirely empty requirement means the resource is
// public to authenticated users.
type Requirement struct {
	// Roles allows access outright when the actor's canonical role is a
	// member, without consulting finer-grained keys.
	Roles []Role
	// MenuKeys are resource permission keys checked against the actor's
	// menu matrix; access is granted if any key resolves true.
	MenuKeys []string
	// Action selects which field of a record-shaped menu permission
	// applies. The zero value is treated as ActionAny.
	Action Action
	// AdminKey is an admin capability key checked against the role grant
	// set and the actor's explicit admin flags.
	AdminKey Capability
}

func (r Requirement) IsEmpty() bool {
	return len(r.Roles) == 0 && len(r.MenuKeys) == 0 && r.AdminKey == ""
}

func (r Requirement) action() Action {
	if r.Action == "" {
		return ActionAny
	}
	return r.Action
}

// RequireRoles builds a role-membership requirement.
func RequireRoles(roles ...Role) Requirement {
	return Requirement{Roles: roles}
}

// RequireMenu builds a resource-key requirement for the given action.
func RequireMenu(action Action, keys ...string) Requirement {
	return Requirement{MenuKeys: keys, Action: action}
}

// RequireAdmin builds an admin-capability requirement.
func RequireAdmin(key Capability) Requirement {
	return Requirement{AdminKey: key}
}

// Resolver decides whether an actor may perform a requested action. It is a
// pure function over its inputs: no lookups, no side effects, safe to call
// redundantly on both client-facing and server-side paths.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

func NewResolver(registry *Registry, logger *slog.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logger}
}

// CanAccess resolves a requirement with first-match-wins precedence:
//
//  1. nil actor (unauthenticated) denies unconditionally.
//  2. superadmin allows everything.
//  3. membership in a required-role set allows without consulting keys.
//  4. menu keys resolve against the matrix, disjunctively; a key absent
//     from the matrix falls back to the role grant set, then to the
//     lenient "admin trusted when not yet configured" default.
//  5. an admin capability key allows when the role grant set carries it
//     or the explicit per-user flag is true.
//  6. an empty requirement allows.
func (r *Resolver) CanAccess(actor *Actor, req Requirement) bool {
	if actor == nil {
		return false
	}

	if actor.Role == RoleSuperadmin {
		return true
	}

	if len(req.Roles) > 0 {
		for _, role := range req.Roles {
			if actor.Role == role {
				return true
			}
		}
	}

	if len(req.MenuKeys) > 0 {
		for _, key := range req.MenuKeys {
			if r.resolveMenuKey(actor, key, req.action()) {
				return true
			}
		}
	}

	if req.AdminKey != "" {
		if r.registry.GrantsFor(actor.Role).Has(req.AdminKey) {
			return true
		}
		if actor.Admin[string(req.AdminKey)] {
			return true
		}
	}

	if req.IsEmpty() {
		return true
	}

	if r.logger != nil {
		r.logger.Debug("access denied",
			"actor_id", actor.ID,
			"role", actor.Role,
			"menu_keys", req.MenuKeys,
			"admin_key", req.AdminKey)
	}
	return false
}

func (r *Resolver) resolveMenuKey(actor *Actor, key string, action Action) bool {
	if value, ok := actor.Menu[key]; ok {
		return value.Allows(action)
	}

	// Key not configured for this user: fall back to the role grant
	// set, then admins default to allow.
	if r.registry.GrantsFor(actor.Role).Has(Capability(key)) {
		return true
	}
	return actor.Role == RoleAdmin
}
