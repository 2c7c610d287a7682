package postgres

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/approval"
	datamodel "github.com/minhopark/store-portal/internal/core/datamodel/inventory"
	"github.com/minhopark/store-portal/internal/inventory"
)

type SheetRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewSheetRepository(db *gorm.DB, logger *slog.Logger) *SheetRepository {
	return &SheetRepository{db: db, logger: logger}
}

func (r *SheetRepository) Create(ctx context.Context, sheet *inventory.Sheet) error {
	dm := inventory.ToDataModel(sheet)
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		r.logger.Error("failed to insert sheet", "error", err, "store_id", sheet.StoreID)
		return err
	}
	*sheet = *inventory.FromDataModel(dm)
	return nil
}

func (r *SheetRepository) GetByID(ctx context.Context, id int64) (*inventory.Sheet, error) {
	var dm datamodel.Sheet
	err := r.db.WithContext(ctx).Preload("Items").First(&dm, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrSheetNotFound
		}
		r.logger.Error("failed to load sheet", "error", err, "sheet_id", id)
		return nil, err
	}
	return inventory.FromDataModel(&dm), nil
}

func (r *SheetRepository) ListByStore(ctx context.Context, storeID int64, limit, offset int) ([]*inventory.Sheet, error) {
	var rows []*datamodel.Sheet
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("store_id = ?", storeID).
		Order("business_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		r.logger.Error("failed to list sheets", "error", err, "store_id", storeID)
		return nil, err
	}
	return inventory.FromDataModelSlice(rows), nil
}

// SaveEditable replaces the line items and derived fields of a sheet in one
// transaction, conditioned on the persisted status still being editable. A
// false return means another actor changed the status first.
func (r *SheetRepository) SaveEditable(ctx context.Context, sheet *inventory.Sheet) (bool, error) {
	dm := inventory.ToDataModel(sheet)

	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&datamodel.Sheet{}).
			Where("id = ? AND status IN ?", dm.ID, []string{
				string(approval.StatusDraft),
				string(approval.StatusDiscrepant),
			}).
			Updates(map[string]interface{}{
				"status":     dm.Status,
				"updated_at": dm.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Where("sheet_id = ?", dm.ID).Delete(&datamodel.LineItem{}).Error; err != nil {
			return err
		}
		for i := range dm.Items {
			dm.Items[i].ID = 0
			dm.Items[i].SheetID = dm.ID
		}
		if len(dm.Items) > 0 {
			if err := tx.Create(&dm.Items).Error; err != nil {
				return err
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		r.logger.Error("failed to save sheet lines", "error", err, "sheet_id", sheet.ID)
		return false, err
	}
	return applied, nil
}

// UpdateStatusIf performs the optimistic-concurrency transition write. The
// WHERE clause on the expected status makes the update a no-op when another
// actor already moved the sheet.
func (r *SheetRepository) UpdateStatusIf(ctx context.Context, id int64, expected, next approval.Status, stamp approval.Stamp) (bool, error) {
	fields := map[string]interface{}{
		"status":     string(next),
		"updated_at": stamp.At,
	}

	switch next {
	case approval.StatusApprovalRequested:
		fields["requested_by"] = stamp.ActorID
		fields["requested_at"] = stamp.At
		if stamp.DiscrepancyReason != "" {
			fields["discrepancy_reason"] = stamp.DiscrepancyReason
		}
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
		Model(&datamodel.Sheet{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(fields)
	if res.Error != nil {
		r.logger.Error("failed to update sheet status", "error", res.Error, "sheet_id", id)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
