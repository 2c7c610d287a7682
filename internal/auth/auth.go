package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/minhopark/store-portal/internal/authz"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// User is the authenticated session identity. Role is canonical — the
// repository normalizes the stored value before it ever reaches here.
type User struct {
	ID               int64                  `json:"id"`
	Email            string                 `json:"email"`
	Name             string                 `json:"name"`
	Role             authz.Role             `json:"role"`
	Status           string                 `json:"status"`
	StoreID          *int64                 `json:"store_id,omitempty"`
	MenuPermissions  authz.MenuPermissions  `json:"menu_permissions,omitempty"`
	AdminPermissions authz.AdminPermissions `json:"admin_permissions,omitempty"`
}

// Actor is the authorization view of this user.
func (u *User) Actor() *authz.Actor {
	if u == nil {
		return nil
	}
	return &authz.Actor{
		ID:    u.ID,
		Role:  u.Role,
		Menu:  u.MenuPermissions,
		Admin: u.AdminPermissions,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == authz.RoleAdmin || u.Role == authz.RoleSuperadmin
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserNotApproved    = errors.New("user is not approved")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
