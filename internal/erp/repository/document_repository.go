package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// DocumentRepository 单据仓库
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建单据仓库
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID 根据ID查找单据（含行）
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// DocumentListParams 单据列表参数
type DocumentListParams struct {
	Type     string
	Status   string
	DealID   string
	Page     int
	PageSize int
}

// List 单据列表
func (r *DocumentRepository) List(ctx context.Context, params DocumentListParams) ([]entity.Document, int64, error) {
	var items []entity.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Document{})
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.DealID != "" {
		query = query.Where("deal_id = ?", params.DealID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.
		Order("created_at DESC").
		Offset(offsetOf(params.Page, params.PageSize)).
		Limit(params.PageSize).
		Find(&items).Error
	return items, total, err
}

// LastNumber 指定前缀下最大的编号
func (r *DocumentRepository) LastNumber(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&entity.Document{}).
		Where("number LIKE ?", prefix+"%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

// Create 创建单据及其行
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = NewID()
	}
	for i := range doc.Items {
		if doc.Items[i].ID == "" {
			doc.Items[i].ID = NewID()
		}
		doc.Items[i].DocumentID = doc.ID
	}
	return r.db.WithContext(ctx).Create(doc).Error
}

// Update 更新单据头
func (r *DocumentRepository) Update(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Omit("Items").Save(doc).Error
}

// ReplaceItems 替换单据行并写入合计
func (r *DocumentRepository) ReplaceItems(ctx context.Context, doc *entity.Document, items []entity.DocumentItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", doc.ID).Delete(&entity.DocumentItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == "" {
				items[i].ID = NewID()
			}
			items[i].DocumentID = doc.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		doc.Items = items
		return tx.Omit("Items").Save(doc).Error
	})
}

// Delete 删除单据及其行
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&entity.DocumentItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Document{}).Error
	})
}
