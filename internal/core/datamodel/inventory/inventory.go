package inventory

import "time"

type Sheet struct {
	ID                int64      `gorm:"primaryKey"`
	StoreID           int64      `gorm:"column:store_id;not null;index"`
	BusinessDate      time.Time  `gorm:"column:business_date;type:date;not null;index"`
	Status            string     `gorm:"column:status;not null;default:draft"`
	DiscrepancyReason string     `gorm:"column:discrepancy_reason"`
	CreatedBy         int64      `gorm:"column:created_by;not null"`
	RequestedBy       *int64     `gorm:"column:requested_by"`
	RequestedAt       *time.Time `gorm:"column:requested_at"`
	ApprovedBy        *int64     `gorm:"column:approved_by"`
	ApprovedAt        *time.Time `gorm:"column:approved_at"`
	RejectedBy        *int64     `gorm:"column:rejected_by"`
	RejectedAt        *time.Time `gorm:"column:rejected_at"`
	RejectionReason   string     `gorm:"column:rejection_reason"`
	CreatedAt         time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;default:now()"`

	Items []LineItem `gorm:"foreignKey:SheetID"`
}

func (Sheet) TableName() string {
	return "inventory_sheets"
}

type LineItem struct {
	ID              int64   `gorm:"primaryKey"`
	SheetID         int64   `gorm:"column:sheet_id;not null;index"`
	ProductName     string  `gorm:"column:product_name;not null"`
	PreviousClosing float64 `gorm:"column:previous_closing;not null;default:0"`
	Inbound         float64 `gorm:"column:inbound;not null;default:0"`
	MorningStock    float64 `gorm:"column:morning_stock;not null;default:0"`
	ClosingStock    float64 `gorm:"column:closing_stock;not null;default:0"`
	ExpectedMorning float64 `gorm:"column:expected_morning;not null;default:0"`
	Discrepancy     float64 `gorm:"column:discrepancy;not null;default:0"`
	WithinTolerance bool    `gorm:"column:within_tolerance;not null;default:true"`
}

func (LineItem) TableName() string {
	return "inventory_line_items"
}
