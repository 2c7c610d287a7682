package postgres

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	datamodel "github.com/minhopark/store-portal/internal/core/datamodel/disposal"
	"github.com/minhopark/store-portal/internal/disposal"
)

type DisposalRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDisposalRepository(db *gorm.DB, logger *slog.Logger) *DisposalRepository {
	return &DisposalRepository{db: db, logger: logger}
}

func (r *DisposalRepository) Create(ctx context.Context, req *disposal.Request) error {
	dm := disposal.ToDataModel(req)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		r.logger.Error("failed to insert disposal request", "error", err, "store_id", req.StoreID)
		return err
	}
	*req = *disposal.FromDataModel(dm)
	return nil
}

func (r *DisposalRepository) GetByID(ctx context.Context, id int64) (*disposal.Request, error) {
	var dm datamodel.Request
	if err := r.db.WithContext(ctx).First(&dm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrDisposalNotFound
		}
		r.logger.Error("failed to load disposal request", "error", err, "disposal_id", id)
		return nil, err
	}
	return disposal.FromDataModel(&dm), nil
}

func (r *DisposalRepository) ListByStore(ctx context.Context, storeID int64, limit, offset int) ([]*disposal.Request, error) {
	var rows []*datamodel.Request
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to list disposal requests", "error", err, "store_id", storeID)
		return nil, err
	}
	return disposal.FromDataModelSlice(rows), nil
}

// SaveEditable writes the editable fields conditioned on the persisted
// status still being editable.
func (r *DisposalRepository) SaveEditable(ctx context.Context, req *disposal.Request) (bool, error) {
	dm := disposal.ToDataModel(req)
	res := r.db.WithContext(ctx).
		Model(&datamodel.Request{}).
		Where("id = ? AND status IN ?", dm.ID, []string{
			string(approval.StatusDraft),
			string(approval.StatusDiscrepant),
		}).
		Updates(map[string]interface{}{
			"product_name": dm.ProductName,
			"quantity":     dm.Quantity,
			"reason":       dm.Reason,
			"photo_url":    dm.PhotoURL,
			"updated_at":   dm.UpdatedAt,
		})
	if res.Error != nil {
		r.logger.Error("failed to save disposal request", "error", res.Error, "disposal_id", req.ID)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *DisposalRepository) UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	fields := map[string]interface{}{
		"status":     string(next),
		"updated_at": stamp.At,
	}

	switch next {
	case approval.StatusApprovalRequested:
		fields["requested_by"] = stamp.ActorID
		fields["requested_at"] = stamp.At
	case approval.StatusApproved:
		fields["approved_by"] = stamp.ActorID
		fields["approved_at"] = stamp.At
	case approval.StatusDraft:
		if stamp.RejectionReason != "" {
			fields["rejected_by"] = stamp.ActorID
			fields["rejected_at"] = stamp.At
			fields["rejection_reason"] = stamp.RejectionReason
		}
	}

	res := r.db.WithContext(ctx).
		Model(&datamodel.Request{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(fields)
	if res.Error != nil {
		r.logger.Error("failed to update disposal status", "error", res.Error, "disposal_id", id)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
