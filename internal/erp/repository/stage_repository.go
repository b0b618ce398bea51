package repository

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// StageRepository 阶段仓库
type StageRepository struct {
	db *gorm.DB
}

// NewStageRepository 创建阶段仓库
func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

// FindByID 根据ID查找阶段
func (r *StageRepository) FindByID(ctx context.Context, id string) (*entity.ProjectStage, error) {
	var s entity.ProjectStage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ListByProject 项目全部阶段
func (r *StageRepository) ListByProject(ctx context.Context, projectID string) ([]entity.ProjectStage, error) {
	var stages []entity.ProjectStage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("item_id ASC, sort_order ASC, created_at ASC").
		Find(&stages).Error
	return stages, err
}

// ListByItem 条目下的阶段
func (r *StageRepository) ListByItem(ctx context.Context, itemID string) ([]entity.ProjectStage, error) {
	var stages []entity.ProjectStage
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("sort_order ASC").
		Find(&stages).Error
	return stages, err
}

// NextSortOrder 条目内下一个阶段序号（无条目时按项目内无条目阶段计算）
func (r *StageRepository) NextSortOrder(ctx context.Context, projectID string, itemID *string) (int, error) {
	var max int
	query := r.db.WithContext(ctx).Model(&entity.ProjectStage{}).Where("project_id = ?", projectID)
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	} else {
		query = query.Where("item_id IS NULL")
	}
	if err := query.Select("COALESCE(MAX(sort_order), -1)").Row().Scan(&max); err != nil {
		return 0, err
	}
	return max + 1, nil
}

// SortOrderTaken 条目内（无条目时为项目内无条目阶段）序号是否已被其他阶段占用
func (r *StageRepository) SortOrderTaken(ctx context.Context, projectID string, itemID *string, order int, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.ProjectStage{}).
		Where("project_id = ? AND sort_order = ?", projectID, order)
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	} else {
		query = query.Where("item_id IS NULL")
	}
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建阶段
func (r *StageRepository) Create(ctx context.Context, s *entity.ProjectStage) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

// CreateBatch 批量创建阶段和依赖（发票生成项目）
func (r *StageRepository) CreateBatch(ctx context.Context, stages []entity.ProjectStage, deps []entity.StageDependency) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(stages) > 0 {
			if err := tx.Create(&stages).Error; err != nil {
				return err
			}
		}
		if len(deps) > 0 {
			return tx.Create(&deps).Error
		}
		return nil
	})
}

// Update 更新阶段
func (r *StageRepository) Update(ctx context.Context, s *entity.ProjectStage) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// Delete 删除阶段及其入边、出边
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("stage_id = ? OR depends_on_stage_id = ?", id, id).
			Delete(&entity.StageDependency{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.ProjectStage{}).Error
	})
}

// ListDependenciesByProject 项目内全部依赖边
func (r *StageRepository) ListDependenciesByProject(ctx context.Context, projectID string) ([]entity.StageDependency, error) {
	var deps []entity.StageDependency
	stageIDs := r.db.Model(&entity.ProjectStage{}).Select("id").Where("project_id = ?", projectID)
	err := r.db.WithContext(ctx).
		Where("stage_id IN (?)", stageIDs).
		Order("created_at ASC").
		Find(&deps).Error
	return deps, err
}

// ListDependencies 阶段的前置依赖边
func (r *StageRepository) ListDependencies(ctx context.Context, stageID string) ([]entity.StageDependency, error) {
	var deps []entity.StageDependency
	err := r.db.WithContext(ctx).
		Where("stage_id = ?", stageID).
		Order("created_at ASC").
		Find(&deps).Error
	return deps, err
}

// FindDependency 根据ID查找依赖边
func (r *StageRepository) FindDependency(ctx context.Context, id string) (*entity.StageDependency, error) {
	var dep entity.StageDependency
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dep).Error; err != nil {
		return nil, notFound(err)
	}
	return &dep, nil
}

// DependencyExists 依赖边是否已存在
func (r *StageRepository) DependencyExists(ctx context.Context, stageID, dependsOnID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.StageDependency{}).
		Where("stage_id = ? AND depends_on_stage_id = ?", stageID, dependsOnID).
		Count(&count).Error
	return count > 0, err
}

// CreateDependency 创建依赖边
func (r *StageRepository) CreateDependency(ctx context.Context, dep *entity.StageDependency) error {
	if dep.ID == "" {
		dep.ID = NewID()
	}
	return r.db.WithContext(ctx).Create(dep).Error
}

// DeleteDependency 删除依赖边
func (r *StageRepository) DeleteDependency(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.StageDependency{}).Error
}
