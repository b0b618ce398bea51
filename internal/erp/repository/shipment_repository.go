package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// ShipmentRepository 发货单仓库
type ShipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository 创建发货单仓库
func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// FindByID 根据ID查找发货单（含明细）
func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var s entity.Shipment
	if err := r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List 发货单列表
func (r *ShipmentRepository) List(ctx context.Context, status, projectID string, page, pageSize int) ([]entity.Shipment, int64, error) {
	var items []entity.Shipment
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Shipment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
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

// LastNumber 指定前缀下最大的编号
func (r *ShipmentRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&entity.Shipment{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

// Create 创建发货单及明细
func (r *ShipmentRepository) Create(ctx context.Context, s *entity.Shipment) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	for i := range s.Lines {
		if s.Lines[i].ID == "" {
			s.Lines[i].ID = NewID()
		}
		s.Lines[i].ShipmentID = s.ID
	}
	return r.db.WithContext(ctx).Create(s).Error
}

// Update 更新发货单头
func (r *ShipmentRepository) Update(ctx context.Context, s *entity.Shipment) error {
	return r.db.WithContext(ctx).Omit("Lines").Save(s).Error
}
