package disposal

import (
	"time"

	"github.com/minhopark/store-portal/internal/approval"
	disposalDatamodel "github.com/minhopark/store-portal/internal/core/datamodel/disposal"
)

// Request is a single product write-off that runs through the same approval
// workflow as inventory sheets. Unlike sheets it has no derived quantities,
// so it never enters the discrepant state.
type Request struct {
	ID              int64           `json:"id"`
	StoreID         int64           `json:"store_id"`
	ProductName     string          `json:"product_name"`
	Quantity        float64         `json:"quantity"`
	Reason          string          `json:"reason"`
	PhotoURL        *string         `json:"photo_url,omitempty"`
	Status          approval.Status `json:"status"`
	CreatedBy       int64           `json:"created_by"`
	RequestedBy     *int64          `json:"requested_by,omitempty"`
	RequestedAt     *time.Time      `json:"requested_at,omitempty"`
	ApprovedBy      *int64          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *int64          `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (d *Request) EntityID() int64 {
	return d.ID
}

func (d *Request) CurrentStatus() approval.Status {
	return d.Status
}

func (d *Request) HasDiscrepancy() bool {
	return false
}

func ToDataModel(d *Request) *disposalDatamodel.Request {
	return &disposalDatamodel.Request{
		ID:              d.ID,
		StoreID:         d.StoreID,
		ProductName:     d.ProductName,
		Quantity:        d.Quantity,
		Reason:          d.Reason,
		PhotoURL:        d.PhotoURL,
		Status:          string(d.Status),
		CreatedBy:       d.CreatedBy,
		RequestedBy:     d.RequestedBy,
		RequestedAt:     d.RequestedAt,
		ApprovedBy:      d.ApprovedBy,
		ApprovedAt:      d.ApprovedAt,
		RejectedBy:      d.RejectedBy,
		RejectedAt:      d.RejectedAt,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func FromDataModel(dm *disposalDatamodel.Request) *Request {
	return &Request{
		ID:              dm.ID,
		StoreID:         dm.StoreID,
		ProductName:     dm.ProductName,
		Quantity:        dm.Quantity,
		Reason:          dm.Reason,
		PhotoURL:        dm.PhotoURL,
		Status:          approval.Status(dm.Status),
		CreatedBy:       dm.CreatedBy,
		RequestedBy:     dm.RequestedBy,
		RequestedAt:     dm.RequestedAt,
		ApprovedBy:      dm.ApprovedBy,
		ApprovedAt:      dm.ApprovedAt,
		RejectedBy:      dm.RejectedBy,
		RejectedAt:      dm.RejectedAt,
		RejectionReason: dm.RejectionReason,
		CreatedAt:       dm.CreatedAt,
		UpdatedAt:       dm.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*disposalDatamodel.Request) []*Request {
	result := make([]*Request, len(rows))
	for i, dm := range rows {
		result[i] = FromDataModel(dm)
	}
	return result
}
