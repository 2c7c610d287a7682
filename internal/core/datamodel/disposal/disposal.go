package disposal

import "time"

type Request struct {
	ID              int64      `gorm:"primaryKey"`
	StoreID         int64      `gorm:"column:store_id;not null;index"`
	ProductName     string     `gorm:"column:product_name;not null"`
	Quantity        float64    `gorm:"column:quantity;not null"`
	Reason          string     `gorm:"column:reason;not null"`
	PhotoURL        *string    `gorm:"column:photo_url"`
	Status          string     `gorm:"column:status;not null;default:draft"`
	CreatedBy       int64      `gorm:"column:created_by;not null"`
	RequestedBy     *int64     `gorm:"column:requested_by"`
	RequestedAt     *time.Time `gorm:"column:requested_at"`
	ApprovedBy      *int64     `gorm:"column:approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	RejectedBy      *int64     `gorm:"column:rejected_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectionReason string     `gorm:"column:rejection_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Request) TableName() string {
	return "disposal_requests"
}
