package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/authz"
	datamodel "github.com/minhopark/store-portal/internal/core/datamodel/user"
	"github.com/minhopark/store-portal/internal/user"
)

type UserRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewUserRepository(db *gorm.DB, logger *slog.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User, passwordHash string) error {
	dm := &datamodel.User{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: passwordHash,
		Role:         string(u.Role),
		Status:       u.Status,
		StoreID:      u.StoreID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		r.logger.Error("failed to insert user", "error", err, "email", u.Email)
		return err
	}

	u.ID = dm.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var dm datamodel.User
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		r.logger.Error("failed to load user", "error", err, "user_id", id)
		return nil, err
	}
	return r.toDomain(&dm)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	var rows []datamodel.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to list users", "error", err)
		return nil, err
	}

	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		u, err := r.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&datamodel.User{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("failed to update user status", "error", res.Error, "user_id", id)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepository) UpdatePermissions(ctx context.Context, id int64, role authz.Role, menu authz.MenuPermissions, admin authz.AdminPermissions) error {
	menuJSON, err := json.Marshal(menu)
	if err != nil {
		return err
	}
	adminJSON, err := json.Marshal(admin)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).
		Model(&datamodel.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":              string(role),
			"menu_permissions":  datatypes.JSON(menuJSON),
			"admin_permissions": datatypes.JSON(adminJSON),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		r.logger.Error("failed to update user permissions", "error", res.Error, "user_id", id)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) toDomain(dm *datamodel.User) (*user.User, error) {
	var menu authz.MenuPermissions
	if len(dm.MenuPermissions) > 0 {
		menu = authz.MenuPermissions{}
		if err := json.Unmarshal(dm.MenuPermissions, &menu); err != nil {
			r.logger.Error("malformed menu_permissions column", "user_id", dm.ID, "error", err)
			return nil, err
		}
	}

	var admin authz.AdminPermissions
	if len(dm.AdminPermissions) > 0 {
		admin = authz.AdminPermissions{}
		if err := json.Unmarshal(dm.AdminPermissions, &admin); err != nil {
			r.logger.Error("malformed admin_permissions column", "user_id", dm.ID, "error", err)
			return nil, err
		}
	}

	return user.FromDataModel(dm, menu, admin), nil
}
