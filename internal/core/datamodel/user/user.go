package user

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID               int64          `gorm:"primaryKey"`
	Email            string         `gorm:"column:email;uniqueIndex;not null"`
	Name             string         `gorm:"column:name;not null"`
	PasswordHash     string         `gorm:"column:password_hash;not null"`
	Role             string         `gorm:"column:role;not null;default:employee"`
	Status           string         `gorm:"column:status;not null;default:pending"`
	StoreID          *int64         `gorm:"column:store_id"`
	MenuPermissions  datatypes.JSON `gorm:"column:menu_permissions"`
	AdminPermissions datatypes.JSON `gorm:"column:admin_permissions"`
	CreatedAt        time.Time      `gorm:"column:created_at;default:now()"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}
