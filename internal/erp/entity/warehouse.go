package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 库存状态
const (
	StockNormal   = "normal"
	StockLow      = "low"
	StockCritical = "critical"
)

// 库存交易类型
const (
	TxIn  = "in"
	TxOut = "out"
)

// WarehouseItem 仓库物料
type WarehouseItem struct {
	ID        string          `json:"id" gorm:"primaryKey;size:32"`
	Name      string          `json:"name" gorm:"size:256;not null"`
	SKU       string          `json:"sku" gorm:"size:64;index"`
	Category  string          `json:"category" gorm:"size:64"`
	Quantity  decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null;default:0"`
	Unit      string          `json:"unit" gorm:"size:20;not null;default:pcs"`
	MinStock  decimal.Decimal `json:"min_stock" gorm:"type:decimal(14,3);not null;default:0"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null;default:0"`
	Location  string          `json:"location" gorm:"size:128"`
	Status    string          `json:"status" gorm:"size:16;not null;default:normal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (WarehouseItem) TableName() string {
	return "warehouse_items"
}

// WarehouseTransaction 库存交易记录（只追加）
type WarehouseTransaction struct {
	ID            string          `json:"id" gorm:"primaryKey;size:32"`
	ItemID        string          `json:"item_id" gorm:"size:32;not null;index"`
	Type          string          `json:"type" gorm:"size:8;not null"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(14,3);not null"`
	UserID        string          `json:"user_id" gorm:"size:32"`
	Notes         string          `json:"notes" gorm:"type:text"`
	ReferenceType string          `json:"reference_type" gorm:"size:32"`
	ReferenceID   string          `json:"reference_id" gorm:"size:32"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (WarehouseTransaction) TableName() string {
	return "warehouse_transactions"
}
