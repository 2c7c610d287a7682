package inventory

import (
	"time"

	"github.com/minhopark/store-portal/internal/approval"
	inventoryDatamodel "github.com/minhopark/store-portal/internal/core/datamodel/inventory"
)

// LineItem is one product row on a daily sheet. The derived fields
// (ExpectedMorning, Discrepancy, WithinTolerance) are recomputed from the
// raw counts on every edit and never patched incrementally.
type LineItem struct {
	ID              int64   `json:"id"`
	SheetID         int64   `json:"sheet_id"`
	ProductName     string  `json:"product_name"`
	PreviousClosing float64 `json:"previous_closing"`
	Inbound         float64 `json:"inbound"`
	MorningStock    float64 `json:"morning_stock"`
	ClosingStock    float64 `json:"closing_stock"`
	ExpectedMorning float64 `json:"expected_morning"`
	Discrepancy     float64 `json:"discrepancy"`
	WithinTolerance bool    `json:"within_tolerance"`
}

// Sheet is the daily inventory reconciliation sheet for one store and one
// business date.
type Sheet struct {
	ID                int64           `json:"id"`
	StoreID           int64           `json:"store_id"`
	BusinessDate      time.Time       `json:"business_date"`
	Status            approval.Status `json:"status"`
	Items             []LineItem      `json:"items"`
	DiscrepancyReason string          `json:"discrepancy_reason,omitempty"`
	CreatedBy         int64           `json:"created_by"`
	RequestedBy       *int64          `json:"requested_by,omitempty"`
	RequestedAt       *time.Time      `json:"requested_at,omitempty"`
	ApprovedBy        *int64          `json:"approved_by,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	RejectedBy        *int64          `json:"rejected_by,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (s *Sheet) EntityID() int64 {
	return s.ID
}

func (s *Sheet) CurrentStatus() approval.Status {
	return s.Status
}

// HasDiscrepancy reports whether any line sits outside tolerance.
func (s *Sheet) HasDiscrepancy() bool {
	for _, item := range s.Items {
		if !item.WithinTolerance {
			return true
		}
	}
	return false
}

// Recompute rebuilds every derived line field from the raw counts and
// settles the draft/discrepant status accordingly. Approved and
// approval-requested sheets are left alone.
func (s *Sheet) Recompute() {
	for i := range s.Items {
		item := &s.Items[i]
		result := ComputeDiscrepancy(item.MorningStock, item.PreviousClosing, item.Inbound)
		item.ExpectedMorning = result.Expected
		item.Discrepancy = result.Delta
		item.WithinTolerance = result.WithinTolerance
	}

	if !approval.IsEditable(s.Status) {
		return
	}
	if s.HasDiscrepancy() {
		s.Status = approval.StatusDiscrepant
	} else {
		s.Status = approval.StatusDraft
	}
}

// WithinEditWindow reports whether the sheet's business date is today or
// within windowDays before today relative to now. Admins bypass this check
// at the service layer.
func WithinEditWindow(businessDate, now time.Time, windowDays int) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	date := time.Date(businessDate.Year(), businessDate.Month(), businessDate.Day(), 0, 0, 0, 0, now.Location())
	if date.After(today) {
		return false
	}
	earliest := today.AddDate(0, 0, -windowDays)
	return !date.Before(earliest)
}

func ToDataModel(s *Sheet) *inventoryDatamodel.Sheet {
	dm := &inventoryDatamodel.Sheet{
		ID:                s.ID,
		StoreID:           s.StoreID,
		BusinessDate:      s.BusinessDate,
		Status:            string(s.Status),
		DiscrepancyReason: s.DiscrepancyReason,
		CreatedBy:         s.CreatedBy,
		RequestedBy:       s.RequestedBy,
		RequestedAt:       s.RequestedAt,
		ApprovedBy:        s.ApprovedBy,
		ApprovedAt:        s.ApprovedAt,
		RejectedBy:        s.RejectedBy,
		RejectedAt:        s.RejectedAt,
		RejectionReason:   s.RejectionReason,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	for _, item := range s.Items {
		dm.Items = append(dm.Items, inventoryDatamodel.LineItem{
			ID:              item.ID,
			SheetID:         item.SheetID,
			ProductName:     item.ProductName,
			PreviousClosing: item.PreviousClosing,
			Inbound:         item.Inbound,
			MorningStock:    item.MorningStock,
			ClosingStock:    item.ClosingStock,
			ExpectedMorning: item.ExpectedMorning,
			Discrepancy:     item.Discrepancy,
			WithinTolerance: item.WithinTolerance,
		})
	}
	return dm
}

func FromDataModel(dm *inventoryDatamodel.Sheet) *Sheet {
	s := &Sheet{
		ID:                dm.ID,
		StoreID:           dm.StoreID,
		BusinessDate:      dm.BusinessDate,
		Status:            approval.Status(dm.Status),
		DiscrepancyReason: dm.DiscrepancyReason,
		CreatedBy:         dm.CreatedBy,
		RequestedBy:       dm.RequestedBy,
		RequestedAt:       dm.RequestedAt,
		ApprovedBy:        dm.ApprovedBy,
		ApprovedAt:        dm.ApprovedAt,
		RejectedBy:        dm.RejectedBy,
		RejectedAt:        dm.RejectedAt,
		RejectionReason:   dm.RejectionReason,
		CreatedAt:         dm.CreatedAt,
		UpdatedAt:         dm.UpdatedAt,
	}
	for _, item := range dm.Items {
		s.Items = append(s.Items, LineItem{
			ID:              item.ID,
			SheetID:         item.SheetID,
			ProductName:     item.ProductName,
			PreviousClosing: item.PreviousClosing,
			Inbound:         item.Inbound,
			MorningStock:    item.MorningStock,
			ClosingStock:    item.ClosingStock,
			ExpectedMorning: item.ExpectedMorning,
			Discrepancy:     item.Discrepancy,
			WithinTolerance: item.WithinTolerance,
		})
	}
	return s
}

func FromDataModelSlice(sheets []*inventoryDatamodel.Sheet) []*Sheet {
	result := make([]*Sheet, len(sheets))
	for i, dm := range sheets {
		result[i] = FromDataModel(dm)
	}
	return result
}
