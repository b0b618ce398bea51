package service

import (
	"context"
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/planning"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/NX-company/Emerald-ERP--sub000/internal/metrics"
	"go.uber.org/zap"
)

// ProgressAggregator 项目进度重算。每次阶段增删改之后同步调用，不与触发写入放在同一事务中。
type ProgressAggregator struct {
	projectRepo *repository.ProjectRepository
	stageRepo   *repository.StageRepository
	logger      *zap.Logger
}

// NewProgressAggregator 创建进度重算器
func NewProgressAggregator(projectRepo *repository.ProjectRepository, stageRepo *repository.StageRepository, logger *zap.Logger) *ProgressAggregator {
	return &ProgressAggregator{projectRepo: projectRepo, stageRepo: stageRepo, logger: logger}
}

// Recompute 读取项目全部阶段并写入 round(100*completed/total)
func (a *ProgressAggregator) Recompute(ctx context.Context, projectID string) (int, error) {
	stages, err := a.stageRepo.ListByProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("list stages: %w", err)
	}
	progress := planning.Progress(stages)
	if err := a.projectRepo.UpdateProgress(ctx, projectID, progress); err != nil {
		return 0, fmt.Errorf("update progress: %w", err)
	}
	metrics.ProgressRecomputes.Inc()
	a.logger.Debug("project progress recomputed",
		zap.String("project_id", projectID),
		zap.Int("stages", len(stages)),
		zap.Int("progress", progress))
	go sse.PublishProjectUpdate(projectID, "progress")
	return progress, nil
}

// RecomputeAll 重算全部项目（运维命令）
func (a *ProgressAggregator) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := a.projectRepo.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	for _, id := range ids {
		if _, err := a.Recompute(ctx, id); err != nil {
			return 0, fmt.Errorf("recompute %s: %w", id, err)
		}
	}
	return len(ids), nil
}
