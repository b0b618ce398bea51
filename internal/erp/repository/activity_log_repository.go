package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLogRepository 操作日志仓库
type ActivityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository 创建操作日志仓库
func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create 创建操作日志
func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	if log.ID == "" {
		log.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity 查询某实体的操作日志
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	var items []entity.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.ActivityLog{})
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offsetOf(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// LogActivity 便捷记录操作日志
func (r *ActivityLogRepository) LogActivity(ctx context.Context, entityType, entityID, action, fromStatus, toStatus, content, operatorID string, metadata map[string]interface{}) error {
	log := &entity.ActivityLog{
		ID:         NewID(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Content:    content,
		Metadata:   datatypes.JSONMap(metadata),
		OperatorID: operatorID,
	}
	return r.db.WithContext(ctx).Create(log).Error
}
