package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(userID int64) (*User, error)
}

type UserRepository interface {
	GetCredentialsForEmail(email string) (passwordHash string, userID int64, status string, err error)
	GetUserWithPermissions(userID int64) (*User, error)
}

type TokenGenerator interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate verifies credentials and issues a token pair. Accounts that
// are still pending or have been rejected/deactivated cannot log in.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	passwordHash, userID, status, err := s.userRepo.GetCredentialsForEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(passwordHash, dto.Password); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	switch status {
	case "active":
	case "pending", "rejected":
		return AuthTokens{}, ErrUserNotApproved
	default:
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(userID, dto.Email)
}

func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	user, err := s.userRepo.GetUserWithPermissions(userID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if user.Status != "active" {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(userID, user.Email)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

func (s *Service) GetUserWithPermissions(userID int64) (*User, error) {
	return s.userRepo.GetUserWithPermissions(userID)
}

func (s *Service) issueTokens(userID int64, email string) (AuthTokens, error) {
	id := strconv.FormatInt(userID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(id, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (g *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return g.generate(userID, email, g.AccessTokenSecret, g.AccessTokenTTL)
}

func (g *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return g.generate(userID, email, g.RefreshTokenSecret, g.RefreshTokenTTL)
}

func (g *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, g.AccessTokenSecret)
}

func (g *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return g.validate(tokenString, g.RefreshTokenSecret)
}

func (g *JWTTokenGenerator) generate(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (g *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
