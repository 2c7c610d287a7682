package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/audit"
	"github.com/minhopark/store-portal/internal/auth"
	"github.com/minhopark/store-portal/internal/authz"
)

type Repository interface {
	Create(ctx context.Context, u *User, passwordHash string) error
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	// UpdateStatusIf flips the lifecycle state only while the persisted
	// status still matches expected.
	UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error)
	UpdatePermissions(ctx context.Context, id int64, role authz.Role, menu authz.MenuPermissions, admin authz.AdminPermissions) error
}

// AuditRecorder appends permission changes to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, adminID, targetUserID int64, before, after audit.PermissionSnapshot) error
}

type Notifier interface {
	EntityChanged(ctx context.Context, kind string, id int64)
}

type Service struct {
	repo       Repository
	resolver   *authz.Resolver
	recorder   AuditRecorder
	notifier   Notifier
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo Repository, resolver *authz.Resolver, recorder AuditRecorder, notifier Notifier, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		recorder:   recorder,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates a pending account. No permission check: registration is
// open, but the account stays pending until an admin approves it.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to register user", err)
	}

	now := s.now()
	u := &User{
		Email:     dto.Email,
		Name:      dto.Name,
		Role:      authz.RoleEmployee,
		Status:    StatusPending,
		StoreID:   dto.StoreID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, u, hash); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email, "status", u.Status)
	return u, nil
}

// ApproveAccount activates a pending account. The write is conditioned on
// the account still being pending so two admins cannot both approve.
func (s *Service) ApproveAccount(ctx context.Context, actor *authz.Actor, userID int64) (*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityAccountApproval)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.transitionStatus(ctx, actor, userID, StatusPending, StatusActive)
}

// RejectAccount declines a pending account.
func (s *Service) RejectAccount(ctx context.Context, actor *authz.Actor, userID int64, dto RejectAccountDTO) (*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityAccountApproval)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	u, err := s.transitionStatus(ctx, actor, userID, StatusPending, StatusRejected)
	if err != nil {
		return nil, err
	}
	if dto.Reason != "" {
		s.logger.Info("account rejected with reason", "user_id", userID, "reason", dto.Reason)
	}
	return u, nil
}

func (s *Service) Deactivate(ctx context.Context, actor *authz.Actor, userID int64) (*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.transitionStatus(ctx, actor, userID, StatusActive, StatusInactive)
}

func (s *Service) Reactivate(ctx context.Context, actor *authz.Actor, userID int64) (*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.transitionStatus(ctx, actor, userID, StatusInactive, StatusActive)
}

// UpdatePermissions replaces a user's role and permission matrices and
// appends a before/after snapshot to the audit trail. An audit write failure
// does not fail the change; the result carries AuditLogged=false instead.
func (s *Service) UpdatePermissions(ctx context.Context, actor *authz.Actor, userID int64, dto UpdatePermissionsDTO) (*UpdatePermissionsResult, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := audit.PermissionSnapshot{
		Role:  current.Role,
		Menu:  current.MenuPermissions.Clone(),
		Admin: current.AdminPermissions.Clone(),
	}

	role := current.Role
	if dto.Role != "" {
		role = authz.Normalize(dto.Role)
	}

	if err := s.repo.UpdatePermissions(ctx, userID, role, dto.MenuPermissions, dto.AdminPermissions); err != nil {
		s.logger.Error("failed to update permissions", "error", err, "user_id", userID)
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	after := audit.PermissionSnapshot{
		Role:  updated.Role,
		Menu:  updated.MenuPermissions.Clone(),
		Admin: updated.AdminPermissions.Clone(),
	}

	result := &UpdatePermissionsResult{User: updated, AuditLogged: true}
	if err := s.recorder.Record(ctx, actor.ID, userID, before, after); err != nil {
		// The permission change is committed; the missing trail entry is
		// surfaced to the caller rather than rolled back.
		s.logger.Error("permission change applied but audit write failed",
			"error", err,
			"admin_id", actor.ID,
			"target_user_id", userID)
		result.AuditLogged = false
	}

	s.notify(ctx, userID)
	return result, nil
}

func (s *Service) GetUser(ctx context.Context, actor *authz.Actor, userID int64) (*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles)) && actorID(actor) != userID {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, actor *authz.Actor, limit, offset int) ([]*User, error) {
	if !s.resolver.CanAccess(actor, authz.RequireAdmin(authz.CapabilityManageRoles)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) transitionStatus(ctx context.Context, actor *authz.Actor, userID int64, expected, next string) (*User, error) {
	applied, err := s.repo.UpdateStatusIf(ctx, userID, expected, next)
	if err != nil {
		s.logger.Error("failed to update user status", "error", err, "user_id", userID)
		return nil, err
	}
	if !applied {
		s.logger.Warn("user status transition lost race or wrong pre-state",
			"user_id", userID,
			"expected", expected,
			"next", next,
			"actor_id", actorID(actor))
		return nil, internal.ErrStaleStatus
	}

	s.logger.Info("user status changed",
		"user_id", userID,
		"from", expected,
		"to", next,
		"actor_id", actorID(actor))
	s.notify(ctx, userID)
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) notify(ctx context.Context, userID int64) {
	if s.notifier != nil {
		s.notifier.EntityChanged(ctx, "user", userID)
	}
}

func actorID(actor *authz.Actor) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
