package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 看板列
const (
	DealStageNew      = "new"
	DealStageMeeting  = "meeting"
	DealStageProposal = "proposal"
	DealStageContract = "contract"
	DealStageWon      = "won"
	DealStageLost     = "lost"
)

// DealStages 看板列顺序
var DealStages = []string{
	DealStageNew, DealStageMeeting, DealStageProposal, DealStageContract, DealStageWon, DealStageLost,
}

// Deal 商机
type Deal struct {
	ID          string          `json:"id" gorm:"primaryKey;size:32"`
	Title       string          `json:"title" gorm:"size:256;not null"`
	ClientName  string          `json:"client_name" gorm:"size:256"`
	ClientPhone string          `json:"client_phone" gorm:"size:32"`
	ClientEmail string          `json:"client_email" gorm:"size:128"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(14,2);not null;default:0"`
	Stage       string          `json:"stage" gorm:"size:16;not null;default:new;index"`
	SortOrder   int             `json:"sort_order" gorm:"not null;default:0"`
	ManagerID   *string         `json:"manager_id" gorm:"size:32"`
	Notes       string          `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Deal) TableName() string {
	return "deals"
}

// DealColumn 看板列
type DealColumn struct {
	Stage  string          `json:"stage"`
	Deals  []Deal          `json:"deals"`
	Amount decimal.Decimal `json:"amount"`
}
