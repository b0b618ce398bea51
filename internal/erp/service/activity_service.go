package service

import (
	"context"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
)

// ActivityService 操作日志查询
type ActivityService struct {
	repo *repository.ActivityLogRepository
}

// NewActivityService 创建操作日志服务
func NewActivityService(repo *repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// List 按实体查询操作日志，新的在前
func (s *ActivityService) List(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	return s.repo.FindByEntity(ctx, entityType, entityID, page, pageSize)
}
