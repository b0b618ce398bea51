package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 发货状态
const (
	ShipmentPending   = "pending"
	ShipmentPacked    = "packed"
	ShipmentShipped   = "shipped"
	ShipmentDelivered = "delivered"
	ShipmentCancelled = "cancelled"
)

// Shipment 发货单
type Shipment struct {
	ID          string     `json:"id" gorm:"primaryKey;size:32"`
	Number      string     `json:"number" gorm:"size:32;not null;uniqueIndex"`
	ProjectID   *string    `json:"project_id" gorm:"size:32;index"`
	DealID      *string    `json:"deal_id" gorm:"size:32;index"`
	Address     string     `json:"address" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:16;not null;default:pending"`
	PlannedDate *time.Time `json:"planned_date"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedBy   string     `json:"created_by" gorm:"size:32"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lines []ShipmentLine `json:"lines,omitempty" gorm:"foreignKey:ShipmentID"`
}

func (Shipment) TableName() string {
	return "shipments"
}

// ShipmentLine 发货明细
type ShipmentLine struct {
	ID              string          `json:"id" gorm:"primaryKey;size:32"`
	ShipmentID      string          `json:"shipment_id" gorm:"size:32;not null;index"`
	WarehouseItemID string          `json:"warehouse_item_id" gorm:"size:32;not null"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
}

func (ShipmentLine) TableName() string {
	return "shipment_lines"
}
