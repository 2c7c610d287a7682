package authz

// Capability identifies a protected admin-level action.
type Capability string

const (
	// CapabilityAll grants all capabilities.
	CapabilityAll Capability = "*"

	CapabilityAccountApproval Capability = "account_approval"
	CapabilityManageRoles     Capability = "manage_roles"
	CapabilityViewAuditLog    Capability = "view_audit_log"
	CapabilityStoreSettings   Capability = "store_settings"
)

// GrantSet is an immutable per-role collection of capabilities. It defines
// the default tier of access before per-user overrides are consulted; it is
// not user-editable at runtime.
type GrantSet struct {
	caps map[Capability]struct{}
}

func NewGrantSet(caps ...Capability) GrantSet {
	m := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		m[c] = struct{}{}
	}
	return GrantSet{caps: m}
}

// Has returns true if the set grants the given capability.
// CapabilityAll ("*") is treated as a wildcard.
func (g GrantSet) Has(c Capability) bool {
	if g.caps == nil {
		return false
	}
	if _, ok := g.caps[CapabilityAll]; ok {
		return true
	}
	_, ok := g.caps[c]
	return ok
}

// Registry maps canonical roles to their grant sets. It is passed into the
// Resolver at construction instead of living as an ambient constant table,
// so tests can substitute their own configuration.
type Registry struct {
	grants map[Role]GrantSet
}

func NewRegistry(grants map[Role]GrantSet) *Registry {
	copied := make(map[Role]GrantSet, len(grants))
	for role, set := range grants {
		copied[role] = set
	}
	return &Registry{grants: copied}
}

// DefaultRegistry returns the production grant configuration. Admins carry
// the safety-critical account-approval capability by default; everything
// else is opt-in through per-user admin permission flags.
func DefaultRegistry() *Registry {
	return NewRegistry(map[Role]GrantSet{
		RoleSuperadmin: NewGrantSet(CapabilityAll),
		RoleAdmin:      NewGrantSet(CapabilityAccountApproval),
		RoleEmployee:   NewGrantSet(),
	})
}

// GrantsFor returns the grant set for a role, empty for unknown roles.
func (r *Registry) GrantsFor(role Role) GrantSet {
	if set, ok := r.grants[role]; ok {
		return set
	}
	return GrantSet{}
}
