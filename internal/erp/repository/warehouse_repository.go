package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WarehouseRepository 仓库物料仓库
type WarehouseRepository struct {
	db *gorm.DB
}

// NewWarehouseRepository 创建仓库物料仓库
func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

// FindByID 根据ID查找物料
func (r *WarehouseRepository) FindByID(ctx context.Context, id string) (*entity.WarehouseItem, error) {
	var item entity.WarehouseItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// WarehouseListParams 物料列表参数
type WarehouseListParams struct {
	Category string
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// List 物料列表，PageSize 为0时返回全部
func (r *WarehouseRepository) List(ctx context.Context, params WarehouseListParams) ([]entity.WarehouseItem, int64, error) {
	var items []entity.WarehouseItem
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WarehouseItem{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.Keyword != "" {
		like := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC")
	if params.PageSize > 0 {
		query = query.Offset(offsetOf(params.Page, params.PageSize)).Limit(params.PageSize)
	}
	err := query.Find(&items).Error
	return items, total, err
}

// Create 创建物料
func (r *WarehouseRepository) Create(ctx context.Context, item *entity.WarehouseItem) error {
	if item.ID == "" {
		item.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 更新物料
func (r *WarehouseRepository) Update(ctx context.Context, item *entity.WarehouseItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// UpdateQuantity 写入数量
func (r *WarehouseRepository) UpdateQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&entity.WarehouseItem{}).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// UpdateStatus 写入派生状态
func (r *WarehouseRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&entity.WarehouseItem{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete 删除物料，交易记录保留
func (r *WarehouseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.WarehouseItem{}).Error
}

// CreateTransaction 追加交易记录
func (r *WarehouseRepository) CreateTransaction(ctx context.Context, tx *entity.WarehouseTransaction) error {
	if tx.ID == "" {
		tx.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactions 物料交易记录
func (r *WarehouseRepository) ListTransactions(ctx context.Context, itemID string, page, pageSize int) ([]entity.WarehouseTransaction, int64, error) {
	var items []entity.WarehouseTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.WarehouseTransaction{}).Where("item_id = ?", itemID)
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
