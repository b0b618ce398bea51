package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog 操作日志
type ActivityLog struct {
	ID         string            `json:"id" gorm:"primaryKey;size:32"`
	EntityType string            `json:"entity_type" gorm:"size:32;not null;index:idx_activity_entity"`
	EntityID   string            `json:"entity_id" gorm:"size:32;not null;index:idx_activity_entity"`
	Action     string            `json:"action" gorm:"size:32;not null"`
	FromStatus string            `json:"from_status" gorm:"size:32"`
	ToStatus   string            `json:"to_status" gorm:"size:32"`
	Content    string            `json:"content" gorm:"type:text"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	OperatorID string            `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time         `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// 日志实体类型
const (
	EntityStage     = "stage"
	EntityProject   = "project"
	EntityWarehouse = "warehouse_item"
	EntityShipment  = "shipment"
	EntityDocument  = "document"
	EntityDeal      = "deal"
)

// All 返回全部需要迁移的模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Role{},
		&Permission{},
		&UserRole{},
		&RolePermission{},
		&Deal{},
		&Document{},
		&DocumentItem{},
		&Project{},
		&ProjectItem{},
		&ProjectStage{},
		&StageDependency{},
		&WarehouseItem{},
		&WarehouseTransaction{},
		&Shipment{},
		&ShipmentLine{},
		&ActivityLog{},
	}
}
