package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// DealRepository 商机仓库
type DealRepository struct {
	db *gorm.DB
}

// NewDealRepository 创建商机仓库
func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// FindByID 根据ID查找商机
func (r *DealRepository) FindByID(ctx context.Context, id string) (*entity.Deal, error) {
	var deal entity.Deal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&deal).Error; err != nil {
		return nil, notFound(err)
	}
	return &deal, nil
}

// List 商机列表，按列和列内位置排序
func (r *DealRepository) List(ctx context.Context, stage, managerID string) ([]entity.Deal, error) {
	var deals []entity.Deal
	query := r.db.WithContext(ctx)
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if managerID != "" {
		query = query.Where("manager_id = ?", managerID)
	}
	err := query.Order("stage ASC, sort_order ASC, created_at ASC").Find(&deals).Error
	return deals, err
}

// NextSortOrder 列内下一个位置
func (r *DealRepository) NextSortOrder(ctx context.Context, stage string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&entity.Deal{}).
		Where("stage = ?", stage).
		Select("COALESCE(MAX(sort_order), -1)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Create 创建商机
func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	if deal.ID == "" {
		deal.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(deal).Error
}

// Update 更新商机
func (r *DealRepository) Update(ctx context.Context, deal *entity.Deal) error {
	return r.db.WithContext(ctx).Save(deal).Error
}

// Move 移动到目标列的指定位置，目标列中其后的商机顺延
func (r *DealRepository) Move(ctx context.Context, id, stage string, position int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Deal{}).
			Where("stage = ? AND sort_order >= ? AND id <> ?", stage, position, id).
			UpdateColumn("sort_order", gorm.Expr("sort_order + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Deal{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"stage": stage, "sort_order": position}).Error
	})
}

// Delete 删除商机
func (r *DealRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Deal{}).Error
}
