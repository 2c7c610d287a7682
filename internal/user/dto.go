package user

import (
	"strings"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/authz"
)

type RegisterDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	StoreID  *int64 `json:"store_id,omitempty"`
}

func (dto RegisterDTO) Validate() error {
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return internal.NewValidationFieldError("email", "a valid email is required", internal.ErrCodeValidationFailed)
	}
	if dto.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return internal.NewValidationFieldError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RejectAccountDTO struct {
	Reason string `json:"reason,omitempty"`
}

// UpdatePermissionsDTO carries the full replacement permission state. The
// role may arrive as any recognized synonym and is normalized before save.
type UpdatePermissionsDTO struct {
	Role             string                 `json:"role"`
	MenuPermissions  authz.MenuPermissions  `json:"menu_permissions"`
	AdminPermissions authz.AdminPermissions `json:"admin_permissions"`
}

func (dto UpdatePermissionsDTO) Validate() error {
	if dto.Role != "" && !authz.Normalize(dto.Role).IsKnown() {
		return internal.NewValidationFieldError("role", "unrecognized role", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdatePermissionsResult reports the saved state plus whether the audit
// trail write succeeded. A false AuditLogged is a degraded success: the
// permission change is already committed.
type UpdatePermissionsResult struct {
	User        *User `json:"user"`
	AuditLogged bool  `json:"audit_logged"`
}
