package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 项目/阶段状态
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Project 项目实体
type Project struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Name         string     `json:"name" gorm:"size:256;not null"`
	ClientName   string     `json:"client_name" gorm:"size:256"`
	DealID       *string    `json:"deal_id" gorm:"size:32;index"`
	DocumentID   *string    `json:"document_id" gorm:"size:32;index"`
	Status       string     `json:"status" gorm:"size:16;not null;default:pending"`
	Progress     int        `json:"progress" gorm:"not null;default:0"`
	DurationDays int        `json:"duration_days" gorm:"not null;default:0"`
	StartedAt    *time.Time `json:"started_at"`
	CreatedBy    string     `json:"created_by" gorm:"size:32"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Items  []ProjectItem  `json:"items,omitempty" gorm:"foreignKey:ProjectID"`
	Stages []ProjectStage `json:"stages,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectItem 项目家具条目
type ProjectItem struct {
	ID        string          `json:"id" gorm:"primaryKey;size:32"`
	ProjectID string          `json:"project_id" gorm:"size:32;not null;index"`
	Name      string          `json:"name" gorm:"size:256;not null"`
	Article   string          `json:"article" gorm:"size:64"`
	Quantity  int             `json:"quantity" gorm:"not null;default:1"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null;default:0"`
	SortOrder int             `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ProjectItem) TableName() string {
	return "project_items"
}

// ProjectStage 项目阶段
type ProjectStage struct {
	ID               string          `json:"id" gorm:"primaryKey;size:32"`
	ProjectID        string          `json:"project_id" gorm:"size:32;not null;index"`
	ItemID           *string         `json:"item_id" gorm:"size:32;index"`
	Name             string          `json:"name" gorm:"size:256;not null"`
	Status           string          `json:"status" gorm:"size:16;not null;default:pending"`
	AssigneeID       *string         `json:"assignee_id" gorm:"size:32"`
	PlannedStartDate *time.Time      `json:"planned_start_date"`
	PlannedEndDate   *time.Time      `json:"planned_end_date"`
	ActualStartDate  *time.Time      `json:"actual_start_date"`
	ActualEndDate    *time.Time      `json:"actual_end_date"`
	Cost             decimal.Decimal `json:"cost" gorm:"type:decimal(14,2);not null;default:0"`
	SortOrder        int             `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// 非数据库字段
	DependsOn []string `json:"depends_on,omitempty" gorm:"-"`
	CanStart  *bool    `json:"can_start,omitempty" gorm:"-"`
}

func (ProjectStage) TableName() string {
	return "project_stages"
}

// SameItem 两个阶段是否属于同一家具条目（均无条目也视为同一条目）
func (s *ProjectStage) SameItem(other *ProjectStage) bool {
	if s.ItemID == nil || other.ItemID == nil {
		return s.ItemID == nil && other.ItemID == nil
	}
	return *s.ItemID == *other.ItemID
}

// StageDependency 阶段依赖：StageID 在 DependsOnStageID 完成前不能离开 pending
type StageDependency struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	StageID          string    `json:"stage_id" gorm:"size:32;not null;index"`
	DependsOnStageID string    `json:"depends_on_stage_id" gorm:"size:32;not null;index"`
	CreatedAt        time.Time `json:"created_at"`

	DependsOnName   string `json:"depends_on_name,omitempty" gorm:"-"`
	DependsOnStatus string `json:"depends_on_status,omitempty" gorm:"-"`
}

func (StageDependency) TableName() string {
	return "stage_dependencies"
}
