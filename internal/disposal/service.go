package disposal

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	"github.com/minhopark/store-portal/internal/authz"
)

// MenuKey is the resource permission key guarding disposal requests.
const MenuKey = "disposal"

type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	ListByStore(ctx context.Context, storeID int64, limit, offset int) ([]*Request, error)
	SaveEditable(ctx context.Context, req *Request) (applied bool, err error)
	UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error)
}

type Notifier interface {
	EntityChanged(ctx context.Context, kind string, id int64)
}

type Service struct {
	repo     Repository
	machine  *approval.Machine
	resolver *authz.Resolver
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, resolver *authz.Resolver, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		machine:  approval.NewMachine(repositoryStore{repo}, logger),
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

type repositoryStore struct {
	repo Repository
}

func (s repositoryStore) UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	return s.repo.UpdateStatusIf(ctx, id, expected, next, stamp)
}

func (s *Service) CreateRequest(ctx context.Context, actor *authz.Actor, dto CreateRequestDTO) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	req := &Request{
		StoreID:     dto.StoreID,
		ProductName: dto.ProductName,
		Quantity:    *dto.Quantity,
		Reason:      dto.Reason,
		PhotoURL:    dto.PhotoURL,
		Status:      approval.StatusDraft,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		s.logger.Error("failed to create disposal request", "error", err, "store_id", dto.StoreID)
		return nil, err
	}

	s.logger.Info("disposal request created",
		"disposal_id", req.ID,
		"store_id", req.StoreID,
		"actor_id", actor.ID)
	s.notify(ctx, req.ID)
	return req, nil
}

func (s *Service) UpdateRequest(ctx context.Context, actor *authz.Actor, id int64, dto UpdateRequestDTO) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == approval.StatusApproved {
		return nil, internal.ErrApprovedReadOnly
	}
	if !approval.IsEditable(req.Status) {
		return nil, internal.NewValidationError(
			"request is awaiting approval and cannot be edited",
			internal.ErrCodeInvalidStatusTransition)
	}

	req.ProductName = dto.ProductName
	req.Quantity = *dto.Quantity
	req.Reason = dto.Reason
	req.PhotoURL = dto.PhotoURL
	req.UpdatedAt = s.now()

	applied, err := s.repo.SaveEditable(ctx, req)
	if err != nil {
		s.logger.Error("failed to save disposal request", "error", err, "disposal_id", id)
		return nil, err
	}
	if !applied {
		return nil, internal.ErrStaleStatus
	}

	s.notify(ctx, id)
	return s.refetch(ctx, id)
}

func (s *Service) RequestApproval(ctx context.Context, actor *authz.Actor, id int64) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.machine.RequestApproval(ctx, req, actor.ID, ""); err != nil {
		return nil, err
	}

	s.notify(ctx, id)
	return s.refetch(ctx, id)
}

func (s *Service) Approve(ctx context.Context, actor *authz.Actor, id int64) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, MenuKey)) {
		s.logger.Warn("disposal approve denied", "actor_id", actorID(actor), "disposal_id", id)
		return nil, internal.ErrUnauthorizedAccess
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Approve(ctx, req, actor.ID); err != nil {
		return nil, err
	}

	s.notify(ctx, id)
	return s.refetch(ctx, id)
}

func (s *Service) Reject(ctx context.Context, actor *authz.Actor, id int64, dto RejectRequestDTO) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Reject(ctx, req, actor.ID, dto.Reason); err != nil {
		return nil, err
	}

	s.notify(ctx, id)
	return s.refetch(ctx, id)
}

func (s *Service) GetRequest(ctx context.Context, actor *authz.Actor, id int64) (*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, actor *authz.Actor, storeID int64, limit, offset int) ([]*Request, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.ListByStore(ctx, storeID, limit, offset)
}

func (s *Service) refetch(ctx context.Context, id int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to refetch disposal request after transition", "error", err, "disposal_id", id)
		return nil, err
	}
	return req, nil
}

func (s *Service) notify(ctx context.Context, id int64) {
	if s.notifier != nil {
		s.notifier.EntityChanged(ctx, "disposal_request", id)
	}
}

func actorID(actor *authz.Actor) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
