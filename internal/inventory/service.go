package inventory

import (
	"context"
	"log/slog"
	"time"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	"github.com/minhopark/store-portal/internal/authz"
)

// MenuKey is the resource permission key guarding inventory sheets.
const MenuKey = "inventory"

// Repository defines the data access methods for sheets. SaveEditable and
// UpdateStatusIf are conditional writes: they apply only while the persisted
// status still matches, so racing actors cannot overwrite each other.
type Repository interface {
	Create(ctx context.Context, sheet *Sheet) error
	GetByID(ctx context.Context, id int64) (*Sheet, error)
	ListByStore(ctx context.Context, storeID int64, limit, offset int) ([]*Sheet, error)
	SaveEditable(ctx context.Context, sheet *Sheet) (applied bool, err error)
	UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error)
}

// Notifier echoes entity changes to the external event bus. Consumers treat
// notifications purely as re-fetch triggers, never as field values.
type Notifier interface {
	EntityChanged(ctx context.Context, kind string, id int64)
}

type Service struct {
	repo           Repository
	machine        *approval.Machine
	resolver       *authz.Resolver
	notifier       Notifier
	editWindowDays int
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(repo Repository, resolver *authz.Resolver, notifier Notifier, editWindowDays int, logger *slog.Logger) *Service {
	return &Service{
		repo:           repo,
		machine:        approval.NewMachine(repositoryStore{repo}, logger),
		resolver:       resolver,
		notifier:       notifier,
		editWindowDays: editWindowDays,
		logger:         logger,
		now:            time.Now,
	}
}

// repositoryStore adapts the sheet repository to the approval store.
type repositoryStore struct {
	repo Repository
}

func (s repositoryStore) UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	return s.repo.UpdateStatusIf(ctx, id, expected, next, stamp)
}

func (s *Service) CreateSheet(ctx context.Context, actor *authz.Actor, dto CreateSheetDTO) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		s.logger.Warn("create sheet denied", "actor_id", actorID(actor))
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkEditWindow(actor, dto.BusinessDate); err != nil {
		return nil, err
	}

	now := s.now()
	sheet := &Sheet{
		StoreID:      dto.StoreID,
		BusinessDate: dto.BusinessDate,
		Status:       approval.StatusDraft,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, item := range dto.Items {
		sheet.Items = append(sheet.Items, item.toLineItem())
	}
	sheet.Recompute()

	if err := s.repo.Create(ctx, sheet); err != nil {
		s.logger.Error("failed to create sheet", "error", err, "store_id", dto.StoreID)
		return nil, err
	}

	s.logger.Info("inventory sheet created",
		"sheet_id", sheet.ID,
		"store_id", sheet.StoreID,
		"status", sheet.Status,
		"actor_id", actor.ID)
	s.notify(ctx, sheet.ID)
	return sheet, nil
}

// UpdateLines replaces the raw counts of an editable sheet and recomputes
// every derived value from scratch. The save is conditioned on the sheet
// still being editable in the store.
func (s *Service) UpdateLines(ctx context.Context, actor *authz.Actor, sheetID int64, dto UpdateLinesDTO) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditWindow(actor, sheet.BusinessDate); err != nil {
		return nil, err
	}
	if sheet.Status == approval.StatusApproved {
		return nil, internal.ErrApprovedReadOnly
	}
	if !approval.IsEditable(sheet.Status) {
		return nil, internal.NewValidationError(
			"sheet is awaiting approval and cannot be edited",
			internal.ErrCodeInvalidStatusTransition)
	}

	sheet.Items = sheet.Items[:0]
	for _, item := range dto.Items {
		line := item.toLineItem()
		line.SheetID = sheet.ID
		sheet.Items = append(sheet.Items, line)
	}
	sheet.Recompute()
	sheet.UpdatedAt = s.now()

	applied, err := s.repo.SaveEditable(ctx, sheet)
	if err != nil {
		s.logger.Error("failed to save sheet lines", "error", err, "sheet_id", sheetID)
		return nil, err
	}
	if !applied {
		return nil, internal.ErrStaleStatus
	}

	s.notify(ctx, sheet.ID)
	return s.refetch(ctx, sheet.ID)
}

func (s *Service) RequestApproval(ctx context.Context, actor *authz.Actor, sheetID int64, dto RequestApprovalDTO) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionWrite, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}

	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.RequestApproval(ctx, sheet, actor.ID, dto.DiscrepancyReason); err != nil {
		return nil, err
	}

	s.notify(ctx, sheetID)
	return s.refetch(ctx, sheetID)
}

func (s *Service) Approve(ctx context.Context, actor *authz.Actor, sheetID int64) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, MenuKey)) {
		s.logger.Warn("approve denied: no approve permission", "actor_id", actorID(actor), "sheet_id", sheetID)
		return nil, internal.ErrUnauthorizedAccess
	}

	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Approve(ctx, sheet, actor.ID); err != nil {
		return nil, err
	}

	s.notify(ctx, sheetID)
	return s.refetch(ctx, sheetID)
}

func (s *Service) Reject(ctx context.Context, actor *authz.Actor, sheetID int64, dto RejectSheetDTO) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionApprove, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.Reject(ctx, sheet, actor.ID, dto.Reason); err != nil {
		return nil, err
	}

	s.notify(ctx, sheetID)
	return s.refetch(ctx, sheetID)
}

func (s *Service) GetSheet(ctx context.Context, actor *authz.Actor, sheetID int64) (*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.GetByID(ctx, sheetID)
}

func (s *Service) ListSheets(ctx context.Context, actor *authz.Actor, storeID int64, limit, offset int) ([]*Sheet, error) {
	if !s.resolver.CanAccess(actor, authz.RequireMenu(authz.ActionRead, MenuKey)) {
		return nil, internal.ErrUnauthorizedAccess
	}
	return s.repo.ListByStore(ctx, storeID, limit, offset)
}

// checkEditWindow enforces the access-window rule: non-admin actors may only
// touch sheets dated today or within the configured window before today.
func (s *Service) checkEditWindow(actor *authz.Actor, businessDate time.Time) error {
	if actor.Role == authz.RoleAdmin || actor.Role == authz.RoleSuperadmin {
		return nil
	}
	if !WithinEditWindow(businessDate, s.now(), s.editWindowDays) {
		s.logger.Warn("edit window closed",
			"actor_id", actor.ID,
			"business_date", businessDate.Format("2006-01-02"))
		return internal.ErrEditWindowClosed
	}
	return nil
}

// refetch returns the authoritative persisted state after a transition
// instead of trusting the locally mutated copy.
func (s *Service) refetch(ctx context.Context, sheetID int64) (*Sheet, error) {
	sheet, err := s.repo.GetByID(ctx, sheetID)
	if err != nil {
		s.logger.Error("failed to refetch sheet after transition", "error", err, "sheet_id", sheetID)
		return nil, err
	}
	return sheet, nil
}

func (s *Service) notify(ctx context.Context, sheetID int64) {
	if s.notifier != nil {
		s.notifier.EntityChanged(ctx, "inventory_sheet", sheetID)
	}
}

func actorID(actor *authz.Actor) int64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
