package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 单据类型
const (
	DocTypeQuote    = "quote"
	DocTypeInvoice  = "invoice"
	DocTypeContract = "contract"
)

// 单据状态
const (
	DocStatusDraft     = "draft"
	DocStatusSent      = "sent"
	DocStatusSigned    = "signed"
	DocStatusPaid      = "paid"
	DocStatusCancelled = "cancelled"
)

// DocumentNumberPrefix 单据编号前缀
var DocumentNumberPrefix = map[string]string{
	DocTypeQuote:    "QUO",
	DocTypeInvoice:  "INV",
	DocTypeContract: "CON",
}

// Document 报价单/发票/合同
type Document struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	Number     string          `json:"number" gorm:"size:32;not null;uniqueIndex"`
	Type       string          `json:"type" gorm:"size:16;not null;index"`
	DealID     *string         `json:"deal_id" gorm:"size:32;index"`
	ClientName string          `json:"client_name" gorm:"size:256"`
	Status     string          `json:"status" gorm:"size:16;not null;default:draft"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(14,2);not null;default:0"`
	Notes      string          `json:"notes" gorm:"type:text"`
	FileKey    string          `json:"file_key" gorm:"size:512"`
	FileName   string          `json:"file_name" gorm:"size:256"`
	CreatedBy  string          `json:"created_by" gorm:"size:32"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// 关联
	Items []DocumentItem `json:"items,omitempty" gorm:"foreignKey:DocumentID"`
}

func (Document) TableName() string {
	return "documents"
}

// DocumentItem 单据行
type DocumentItem struct {
	ID         string          `json:"id" gorm:"primaryKey;size:32"`
	DocumentID string          `json:"document_id" gorm:"size:32;not null;index"`
	Name       string          `json:"name" gorm:"size:256;not null"`
	Article    string          `json:"article" gorm:"size:64"`
	Quantity   int             `json:"quantity" gorm:"not null;default:1"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null;default:0"`
	SortOrder  int             `json:"sort_order" gorm:"not null;default:0"`
}

func (DocumentItem) TableName() string {
	return "document_items"
}

// LineTotal 行金额
func (i DocumentItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
