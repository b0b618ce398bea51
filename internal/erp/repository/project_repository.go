package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// ProjectRepository 项目仓库
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建项目仓库
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID 根据ID查找项目
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// FindWithItems 查找项目并加载条目
func (r *ProjectRepository) FindWithItems(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// ProjectListParams 项目列表参数
type ProjectListParams struct {
	Status   string
	Keyword  string
	DealID   string
	Page     int
	PageSize int
}

// List 项目列表
func (r *ProjectRepository) List(ctx context.Context, params ProjectListParams) ([]entity.Project, int64, error) {
	var items []entity.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Project{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.DealID != "" {
		query = query.Where("deal_id = ?", params.DealID)
	}
	if params.Keyword != "" {
		like := "%" + params.Keyword + "%"
		query = query.Where("name LIKE ? OR client_name LIKE ?", like, like)
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

// ListIDs 全部项目ID
func (r *ProjectRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.Project{}).Order("created_at ASC").Pluck("id", &ids).Error
	return ids, err
}

// Create 创建项目
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

// Update 更新项目
func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	return r.db.WithContext(ctx).Omit("Items", "Stages").Save(p).Error
}

// UpdateProgress 写入派生进度
func (r *ProjectRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.db.WithContext(ctx).Model(&entity.Project{}).
		Where("id = ?", id).
		Update("progress", progress).Error
}

// Delete 删除项目及其条目、阶段、依赖
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stageIDs := tx.Model(&entity.ProjectStage{}).Select("id").Where("project_id = ?", id)
		if err := tx.Where("stage_id IN (?) OR depends_on_stage_id IN (?)", stageIDs, stageIDs).
			Delete(&entity.StageDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&entity.ProjectStage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&entity.ProjectItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Project{}).Error
	})
}

// ProjectItemRepository 项目条目仓库
type ProjectItemRepository struct {
	db *gorm.DB
}

// NewProjectItemRepository 创建项目条目仓库
func NewProjectItemRepository(db *gorm.DB) *ProjectItemRepository {
	return &ProjectItemRepository{db: db}
}

// FindByID 根据ID查找条目
func (r *ProjectItemRepository) FindByID(ctx context.Context, id string) (*entity.ProjectItem, error) {
	var item entity.ProjectItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// ListByProject 项目条目列表
func (r *ProjectItemRepository) ListByProject(ctx context.Context, projectID string) ([]entity.ProjectItem, error) {
	var items []entity.ProjectItem
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("sort_order ASC, created_at ASC").
		Find(&items).Error
	return items, err
}

// NextSortOrder 项目内下一个条目序号
func (r *ProjectItemRepository) NextSortOrder(ctx context.Context, projectID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&entity.ProjectItem{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(sort_order), -1)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Create 创建条目
func (r *ProjectItemRepository) Create(ctx context.Context, item *entity.ProjectItem) error {
	if item.ID == "" {
		item.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 更新条目
func (r *ProjectItemRepository) Update(ctx context.Context, item *entity.ProjectItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除条目及其阶段、依赖
func (r *ProjectItemRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stageIDs := tx.Model(&entity.ProjectStage{}).Select("id").Where("item_id = ?", id)
		if err := tx.Where("stage_id IN (?) OR depends_on_stage_id IN (?)", stageIDs, stageIDs).
			Delete(&entity.StageDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&entity.ProjectStage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.ProjectItem{}).Error
	})
}
