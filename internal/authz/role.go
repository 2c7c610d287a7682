package authz

import "strings"

// Role is a canonical role tier. All comparisons downstream of the
// normalizer operate on canonical roles only, never raw stored strings.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
)

// roleSynonyms collapses legacy identifiers that mean the same operational
// tier. Canonical values map to themselves so normalization is idempotent.
var roleSynonyms = map[string]Role{
	"superadmin": RoleSuperadmin,
	"master":     RoleSuperadmin,
	"admin":      RoleAdmin,
	"manager":    RoleAdmin,
	"employee":   RoleEmployee,
	"staff":      RoleEmployee,
	"parttime":   RoleEmployee,
}

// Normalize maps a raw stored role identifier to its canonical tier.
// Unknown values pass through unchanged.
func Normalize(raw string) Role {
	if canonical, ok := roleSynonyms[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical
	}
	return Role(raw)
}

// IsKnown reports whether r is one of the canonical tiers.
func (r Role) IsKnown() bool {
	return r == RoleSuperadmin || r == RoleAdmin || r == RoleEmployee
}
