package user

import (
	"time"

	"github.com/minhopark/store-portal/internal/authz"
	userDatamodel "github.com/minhopark/store-portal/internal/core/datamodel/user"
)

// Account lifecycle states. New registrations start pending and only become
// active once an admin approves them; rejected and inactive accounts cannot
// log in.
const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
	StatusInactive = "inactive"
)

type User struct {
	ID               int64                  `json:"id"`
	Email            string                 `json:"email"`
	Name             string                 `json:"name"`
	Role             authz.Role             `json:"role"`
	Status           string                 `json:"status"`
	StoreID          *int64                 `json:"store_id,omitempty"`
	MenuPermissions  authz.MenuPermissions  `json:"menu_permissions,omitempty"`
	AdminPermissions authz.AdminPermissions `json:"admin_permissions,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func FromDataModel(dm *userDatamodel.User, menu authz.MenuPermissions, admin authz.AdminPermissions) *User {
	return &User{
		ID:               dm.ID,
		Email:            dm.Email,
		Name:             dm.Name,
		Role:             authz.Normalize(dm.Role),
		Status:           dm.Status,
		StoreID:          dm.StoreID,
		MenuPermissions:  menu,
		AdminPermissions: admin,
		CreatedAt:        dm.CreatedAt,
		UpdatedAt:        dm.UpdatedAt,
	}
}
