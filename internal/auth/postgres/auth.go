package postgres

import (
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal/auth"
	"github.com/minhopark/store-portal/internal/authz"
	datamodel "github.com/minhopark/store-portal/internal/core/datamodel/user"
)

type AuthRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuthRepository(db *gorm.DB, logger *slog.Logger) *AuthRepository {
	return &AuthRepository{db: db, logger: logger}
}

func (r *AuthRepository) GetCredentialsForEmail(email string) (string, int64, string, error) {
	var row datamodel.User
	err := r.db.Select("id", "password_hash", "status").Where("email = ?", email).First(&row).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Error("failed to load credentials", "error", err)
		}
		return "", 0, "", auth.ErrInvalidCredentials
	}
	return row.PasswordHash, row.ID, row.Status, nil
}

func (r *AuthRepository) GetUserWithPermissions(userID int64) (*auth.User, error) {
	var row datamodel.User
	if err := r.db.First(&row, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidToken
		}
		r.logger.Error("failed to load user", "user_id", userID, "error", err)
		return nil, err
	}
	return toAuthUser(&row, r.logger)
}

func toAuthUser(row *datamodel.User, lg *slog.Logger) (*auth.User, error) {
	user := &auth.User{
		ID:      row.ID,
		Email:   row.Email,
		Name:    row.Name,
		Role:    authz.Normalize(row.Role),
		Status:  row.Status,
		StoreID: row.StoreID,
	}

	if len(row.MenuPermissions) > 0 {
		menu := authz.MenuPermissions{}
		if err := json.Unmarshal(row.MenuPermissions, &menu); err != nil {
			lg.Error("malformed menu_permissions column", "user_id", row.ID, "error", err)
			return nil, err
		}
		user.MenuPermissions = menu
	}

	if len(row.AdminPermissions) > 0 {
		admin := authz.AdminPermissions{}
		if err := json.Unmarshal(row.AdminPermissions, &admin); err != nil {
			lg.Error("malformed admin_permissions column", "user_id", row.ID, "error", err)
			return nil, err
		}
		user.AdminPermissions = admin
	}

	return user, nil
}
