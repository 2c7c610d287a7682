package inventory

import (
	"time"

	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/core/common/validation"
)

// LineItemDTO carries raw counts from the client. Quantities are pointers
// so an untouched field arrives as nil and coerces to zero rather than
// failing the computation.
type LineItemDTO struct {
	ID              int64    `json:"id,omitempty"`
	ProductName     string   `json:"product_name"`
	PreviousClosing *float64 `json:"previous_closing"`
	Inbound         *float64 `json:"inbound"`
	MorningStock    *float64 `json:"morning_stock"`
	ClosingStock    *float64 `json:"closing_stock"`
}

func (dto LineItemDTO) toLineItem() LineItem {
	return LineItem{
		ID:              dto.ID,
		ProductName:     dto.ProductName,
		PreviousClosing: CoerceQuantity(dto.PreviousClosing),
		Inbound:         CoerceQuantity(dto.Inbound),
		MorningStock:    CoerceQuantity(dto.MorningStock),
		ClosingStock:    CoerceQuantity(dto.ClosingStock),
	}
}

type CreateSheetDTO struct {
	StoreID      int64         `json:"store_id"`
	BusinessDate time.Time     `json:"business_date"`
	Items        []LineItemDTO `json:"items"`
}

func (dto CreateSheetDTO) Validate() error {
	if dto.StoreID <= 0 {
		return internal.NewValidationFieldError("store_id", "store_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.BusinessDate.IsZero() {
		return internal.NewValidationFieldError("business_date", "business_date is required", internal.ErrCodeInvalidDate)
	}
	if err := validation.ValidateBusinessDate(dto.BusinessDate); err != nil {
		return err
	}
	for _, item := range dto.Items {
		if item.ProductName == "" {
			return internal.NewValidationFieldError("product_name", "every line item needs a product name", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

type UpdateLinesDTO struct {
	Items []LineItemDTO `json:"items"`
}

func (dto UpdateLinesDTO) Validate() error {
	if len(dto.Items) == 0 {
		return internal.NewValidationFieldError("items", "at least one line item is required", internal.ErrCodeValidationFailed)
	}
	for _, item := range dto.Items {
		if item.ProductName == "" {
			return internal.NewValidationFieldError("product_name", "every line item needs a product name", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

type RequestApprovalDTO struct {
	DiscrepancyReason string `json:"discrepancy_reason,omitempty"`
}

type RejectSheetDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectSheetDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationError("a rejection reason is required", internal.ErrCodeRejectionReasonMissing)
	}
	return nil
}
