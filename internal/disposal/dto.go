package disposal

import (
	"github.com/minhopark/store-portal/internal"
	"github.com/minhopark/store-portal/internal/core/common/validation"
)

type CreateRequestDTO struct {
	StoreID     int64    `json:"store_id"`
	ProductName string   `json:"product_name"`
	Quantity    *float64 `json:"quantity"`
	Reason      string   `json:"reason"`
	PhotoURL    *string  `json:"photo_url,omitempty"`
}

func (dto CreateRequestDTO) Validate() error {
	if dto.StoreID <= 0 {
		return internal.NewValidationFieldError("store_id", "store_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.ProductName == "" {
		return internal.NewValidationFieldError("product_name", "product_name is required", internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidateDisposalQuantity(dto.Quantity); err != nil {
		return err
	}
	if err := validation.ValidateReason("reason", dto.Reason); err != nil {
		return err
	}
	return nil
}

type UpdateRequestDTO struct {
	ProductName string   `json:"product_name"`
	Quantity    *float64 `json:"quantity"`
	Reason      string   `json:"reason"`
	PhotoURL    *string  `json:"photo_url,omitempty"`
}

func (dto UpdateRequestDTO) Validate() error {
	if dto.ProductName == "" {
		return internal.NewValidationFieldError("product_name", "product_name is required", internal.ErrCodeValidationFailed)
	}
	if err := validation.ValidateDisposalQuantity(dto.Quantity); err != nil {
		return err
	}
	if err := validation.ValidateReason("reason", dto.Reason); err != nil {
		return err
	}
	return nil
}

type RejectRequestDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectRequestDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationError("a rejection reason is required", internal.ErrCodeRejectionReasonMissing)
	}
	return nil
}
