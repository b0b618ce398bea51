package service

import (
	"context"
	"fmt"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/planning"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/NX-company/Emerald-ERP--sub000/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StageService 阶段服务：依赖门禁、进度重算、排期视图
type StageService struct {
	stageRepo   *repository.StageRepository
	itemRepo    *repository.ProjectItemRepository
	projectRepo *repository.ProjectRepository
	logRepo     *repository.ActivityLogRepository
	progress    *ProgressAggregator
	logger      *zap.Logger
	now         Clock
}

// NewStageService 创建阶段服务
func NewStageService(
	stageRepo *repository.StageRepository,
	itemRepo *repository.ProjectItemRepository,
	projectRepo *repository.ProjectRepository,
	logRepo *repository.ActivityLogRepository,
	progress *ProgressAggregator,
	logger *zap.Logger,
) *StageService {
	return &StageService{
		stageRepo:   stageRepo,
		itemRepo:    itemRepo,
		projectRepo: projectRepo,
		logRepo:     logRepo,
		progress:    progress,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock 替换当前时间来源
func (s *StageService) SetClock(now Clock) {
	s.now = now
}

func validStageStatus(status string) bool {
	switch status {
	case entity.StatusPending, entity.StatusInProgress, entity.StatusCompleted:
		return true
	}
	return false
}

// loadIndex 加载项目阶段与依赖边并构建索引
func (s *StageService) loadIndex(ctx context.Context, projectID string) (*planning.Index, error) {
	var stages []entity.ProjectStage
	var deps []entity.StageDependency

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = s.stageRepo.ListByProject(gctx, projectID)
		if err != nil {
			return fmt.Errorf("list stages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		deps, err = s.stageRepo.ListDependenciesByProject(gctx, projectID)
		if err != nil {
			return fmt.Errorf("list dependencies: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return planning.NewIndex(stages, deps), nil
}

// checkGate 离开 pending 前检查同条目前置阶段
func (s *StageService) checkGate(ix *planning.Index, stageID, status string) error {
	if !planning.RequiresGate(status) {
		return nil
	}
	blockers := ix.IncompleteRequired(stageID)
	if len(blockers) == 0 {
		return nil
	}
	metrics.StageGateRejections.Inc()
	names := make([]string, 0, len(blockers))
	for _, b := range blockers {
		names = append(names, b.Name)
	}
	return &DependencyBlockedError{StageID: stageID, Blockers: names}
}

// checkSortOrder 同一条目内阶段序号唯一
func (s *StageService) checkSortOrder(ctx context.Context, projectID string, itemID *string, order int, excludeID string) error {
	if order < 0 {
		return validationf("阶段序号不能为负: %d", order)
	}
	taken, err := s.stageRepo.SortOrderTaken(ctx, projectID, itemID, order, excludeID)
	if err != nil {
		return fmt.Errorf("check sort order: %w", err)
	}
	if taken {
		return validationf("阶段序号 %d 在该条目内已被占用", order)
	}
	return nil
}

// ListByProject 项目阶段列表，附带前置阶段ID和可开始标记
func (s *StageService) ListByProject(ctx context.Context, projectID string) ([]entity.ProjectStage, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, translate(err, "project")
	}
	ix, err := s.loadIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.ProjectStage, 0)
	for _, st := range ix.Stages() {
		stage := *st
		stage.DependsOn = append([]string(nil), ix.Prerequisites(st.ID)...)
		canStart := ix.CanStart(st.ID)
		stage.CanStart = &canStart
		out = append(out, stage)
	}
	return out, nil
}

// Get 获取阶段
func (s *StageService) Get(ctx context.Context, id string) (*entity.ProjectStage, error) {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "stage")
	}
	return stage, nil
}

// CreateStageRequest 创建阶段请求
type CreateStageRequest struct {
	ItemID           *string          `json:"item_id"`
	Name             string           `json:"name" binding:"required,max=256"`
	Status           string           `json:"status" binding:"omitempty,stage_status"`
	AssigneeID       *string          `json:"assignee_id"`
	PlannedStartDate string           `json:"planned_start_date"`
	PlannedEndDate   string           `json:"planned_end_date"`
	Cost             *decimal.Decimal `json:"cost"`
	SortOrder        *int             `json:"sort_order"`
	DependsOn        []string         `json:"depends_on"`
}

// Create 创建阶段，随后重算项目进度
func (s *StageService) Create(ctx context.Context, projectID string, req *CreateStageRequest, userID string) (*entity.ProjectStage, error) {
	if req.Name == "" {
		return nil, validationf("阶段名称不能为空")
	}
	status := req.Status
	if status == "" {
		status = entity.StatusPending
	}
	if !validStageStatus(status) {
		return nil, validationf("无效的阶段状态: %s", status)
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, translate(err, "project")
	}
	if req.ItemID != nil && *req.ItemID == "" {
		req.ItemID = nil
	}
	if req.ItemID != nil {
		item, err := s.itemRepo.FindByID(ctx, *req.ItemID)
		if err != nil {
			return nil, translate(err, "item")
		}
		if item.ProjectID != projectID {
			return nil, validationf("条目不属于该项目")
		}
	}
	plannedStart, err := parseDate(req.PlannedStartDate)
	if err != nil {
		return nil, err
	}
	plannedEnd, err := parseDate(req.PlannedEndDate)
	if err != nil {
		return nil, err
	}

	stage := &entity.ProjectStage{
		ID:               repository.NewID(),
		ProjectID:        projectID,
		ItemID:           req.ItemID,
		Name:             req.Name,
		Status:           status,
		AssigneeID:       req.AssigneeID,
		PlannedStartDate: plannedStart,
		PlannedEndDate:   plannedEnd,
	}
	if req.Cost != nil {
		stage.Cost = *req.Cost
	}
	if req.SortOrder != nil {
		if err := s.checkSortOrder(ctx, projectID, req.ItemID, *req.SortOrder, ""); err != nil {
			return nil, err
		}
		stage.SortOrder = *req.SortOrder
	} else {
		next, err := s.stageRepo.NextSortOrder(ctx, projectID, req.ItemID)
		if err != nil {
			return nil, fmt.Errorf("next sort order: %w", err)
		}
		stage.SortOrder = next
	}

	// 请求中带前置阶段时，按加入新边之后的索引检查门禁
	var deps []entity.StageDependency
	if len(req.DependsOn) > 0 {
		ix, err := s.loadIndex(ctx, projectID)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool, len(req.DependsOn))
		for _, preID := range req.DependsOn {
			if seen[preID] {
				continue
			}
			seen[preID] = true
			if _, ok := ix.Stage(preID); !ok {
				return nil, validationf("前置阶段不存在或不属于该项目: %s", preID)
			}
			deps = append(deps, entity.StageDependency{
				ID:               repository.NewID(),
				StageID:          stage.ID,
				DependsOnStageID: preID,
			})
		}
		stages := make([]entity.ProjectStage, 0)
		for _, st := range ix.Stages() {
			stages = append(stages, *st)
		}
		stages = append(stages, *stage)
		var edges []entity.StageDependency
		for _, st := range ix.Stages() {
			for _, pre := range ix.Prerequisites(st.ID) {
				edges = append(edges, entity.StageDependency{StageID: st.ID, DependsOnStageID: pre})
			}
		}
		edges = append(edges, deps...)
		if err := s.checkGate(planning.NewIndex(stages, edges), stage.ID, status); err != nil {
			return nil, err
		}
	}

	now := s.now()
	if status != entity.StatusPending {
		stage.ActualStartDate = &now
	}
	if status == entity.StatusCompleted {
		stage.ActualEndDate = &now
	}

	created := []entity.ProjectStage{*stage}
	if err := s.stageRepo.CreateBatch(ctx, created, deps); err != nil {
		return nil, fmt.Errorf("create stage: %w", err)
	}
	*stage = created[0]
	for _, d := range deps {
		stage.DependsOn = append(stage.DependsOn, d.DependsOnStageID)
	}

	if _, err := s.progress.Recompute(ctx, projectID); err != nil {
		return nil, err
	}
	s.logActivity(ctx, stage, "create", "", stage.Status, userID)
	go sse.PublishStageUpdate(projectID, stage.ID, "created")
	return stage, nil
}

// UpdateStageRequest 更新阶段请求，空字段不修改
type UpdateStageRequest struct {
	Name             *string          `json:"name" binding:"omitempty,max=256"`
	Status           *string          `json:"status" binding:"omitempty,stage_status"`
	AssigneeID       *string          `json:"assignee_id"`
	PlannedStartDate *string          `json:"planned_start_date"`
	PlannedEndDate   *string          `json:"planned_end_date"`
	Cost             *decimal.Decimal `json:"cost"`
	SortOrder        *int             `json:"sort_order"`
}

// Update 更新阶段。请求中带非 pending 状态时经过依赖门禁；无论状态是否变化都重算进度。
func (s *StageService) Update(ctx context.Context, id string, req *UpdateStageRequest, userID string) (*entity.ProjectStage, error) {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "stage")
	}
	fromStatus := stage.Status

	if req.Status != nil {
		if !validStageStatus(*req.Status) {
			return nil, validationf("无效的阶段状态: %s", *req.Status)
		}
		if planning.RequiresGate(*req.Status) {
			ix, err := s.loadIndex(ctx, stage.ProjectID)
			if err != nil {
				return nil, err
			}
			if err := s.checkGate(ix, stage.ID, *req.Status); err != nil {
				return nil, err
			}
		}
		s.applyStatus(stage, *req.Status)
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, validationf("阶段名称不能为空")
		}
		stage.Name = *req.Name
	}
	assigned := ""
	if req.AssigneeID != nil {
		if *req.AssigneeID == "" {
			stage.AssigneeID = nil
		} else {
			if stage.AssigneeID == nil || *stage.AssigneeID != *req.AssigneeID {
				assigned = *req.AssigneeID
			}
			stage.AssigneeID = req.AssigneeID
		}
	}
	if req.PlannedStartDate != nil {
		if stage.PlannedStartDate, err = parseDate(*req.PlannedStartDate); err != nil {
			return nil, err
		}
	}
	if req.PlannedEndDate != nil {
		if stage.PlannedEndDate, err = parseDate(*req.PlannedEndDate); err != nil {
			return nil, err
		}
	}
	if req.Cost != nil {
		stage.Cost = *req.Cost
	}
	if req.SortOrder != nil && *req.SortOrder != stage.SortOrder {
		if err := s.checkSortOrder(ctx, stage.ProjectID, stage.ItemID, *req.SortOrder, stage.ID); err != nil {
			return nil, err
		}
		stage.SortOrder = *req.SortOrder
	}

	if err := s.stageRepo.Update(ctx, stage); err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}
	if _, err := s.progress.Recompute(ctx, stage.ProjectID); err != nil {
		return nil, err
	}
	if fromStatus != stage.Status {
		s.logActivity(ctx, stage, "status_change", fromStatus, stage.Status, userID)
	}
	go sse.PublishStageUpdate(stage.ProjectID, stage.ID, "updated")
	if assigned != "" && assigned != userID {
		go sse.NotifyStageAssigned(assigned, stage.ProjectID, stage.ID, stage.Name)
	}
	return stage, nil
}

// UpdateStatus 仅修改状态（看板拖拽、状态按钮）
func (s *StageService) UpdateStatus(ctx context.Context, id, status, userID string) (*entity.ProjectStage, error) {
	return s.Update(ctx, id, &UpdateStageRequest{Status: &status}, userID)
}

// applyStatus 写入状态并维护实际开始/结束时间
func (s *StageService) applyStatus(stage *entity.ProjectStage, status string) {
	now := s.now()
	switch status {
	case entity.StatusPending:
		stage.ActualStartDate = nil
		stage.ActualEndDate = nil
	case entity.StatusInProgress:
		if stage.ActualStartDate == nil {
			stage.ActualStartDate = &now
		}
		stage.ActualEndDate = nil
	case entity.StatusCompleted:
		if stage.ActualStartDate == nil {
			stage.ActualStartDate = &now
		}
		if stage.ActualEndDate == nil || stage.Status != entity.StatusCompleted {
			stage.ActualEndDate = &now
		}
	}
	stage.Status = status
}

// Delete 删除阶段及其依赖边，随后重算项目进度
func (s *StageService) Delete(ctx context.Context, id, userID string) error {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "stage")
	}
	if err := s.stageRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	if _, err := s.progress.Recompute(ctx, stage.ProjectID); err != nil {
		return err
	}
	s.logActivity(ctx, stage, "delete", stage.Status, "", userID)
	go sse.PublishStageUpdate(stage.ProjectID, stage.ID, "deleted")
	return nil
}

// BlockerInfo 阶段的未完成前置阶段
type BlockerInfo struct {
	StageID  string                `json:"stage_id"`
	CanStart bool                  `json:"can_start"`
	Blockers []entity.ProjectStage `json:"blockers"`
}

// Blockers 同条目内尚未完成的前置阶段
func (s *StageService) Blockers(ctx context.Context, id string) (*BlockerInfo, error) {
	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "stage")
	}
	ix, err := s.loadIndex(ctx, stage.ProjectID)
	if err != nil {
		return nil, err
	}
	info := &BlockerInfo{StageID: id, Blockers: make([]entity.ProjectStage, 0)}
	for _, b := range ix.IncompleteRequired(id) {
		info.Blockers = append(info.Blockers, *b)
	}
	info.CanStart = len(info.Blockers) == 0
	return info, nil
}

// CanStart 阶段是否可以离开 pending
func (s *StageService) CanStart(ctx context.Context, id string) (bool, error) {
	info, err := s.Blockers(ctx, id)
	if err != nil {
		return false, err
	}
	return info.CanStart, nil
}

// ListDependencies 阶段的前置依赖，附带前置阶段名称和状态
func (s *StageService) ListDependencies(ctx context.Context, stageID string) ([]entity.StageDependency, error) {
	stage, err := s.stageRepo.FindByID(ctx, stageID)
	if err != nil {
		return nil, translate(err, "stage")
	}
	ix, err := s.loadIndex(ctx, stage.ProjectID)
	if err != nil {
		return nil, err
	}
	deps, err := s.stageRepo.ListDependencies(ctx, stageID)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	for i := range deps {
		if pre, ok := ix.Stage(deps[i].DependsOnStageID); ok {
			deps[i].DependsOnName = pre.Name
			deps[i].DependsOnStatus = pre.Status
		}
	}
	return deps, nil
}

// AddDependency 新增依赖边。拒绝自环、重复边和会形成环的边；跨条目的边允许保存但不参与门禁。
func (s *StageService) AddDependency(ctx context.Context, stageID, dependsOnID string) (*entity.StageDependency, error) {
	if dependsOnID == "" {
		return nil, validationf("前置阶段不能为空")
	}
	if stageID == dependsOnID {
		return nil, validationf("阶段不能依赖自身")
	}
	stage, err := s.stageRepo.FindByID(ctx, stageID)
	if err != nil {
		return nil, translate(err, "stage")
	}
	pre, err := s.stageRepo.FindByID(ctx, dependsOnID)
	if err != nil {
		return nil, translate(err, "prerequisite stage")
	}
	if pre.ProjectID != stage.ProjectID {
		return nil, validationf("前置阶段不属于同一项目")
	}
	exists, err := s.stageRepo.DependencyExists(ctx, stageID, dependsOnID)
	if err != nil {
		return nil, fmt.Errorf("check dependency: %w", err)
	}
	if exists {
		return nil, validationf("依赖已存在")
	}
	ix, err := s.loadIndex(ctx, stage.ProjectID)
	if err != nil {
		return nil, err
	}
	if ix.WouldCycle(stageID, dependsOnID) {
		return nil, validationf("依赖会形成循环: %s -> %s", stage.Name, pre.Name)
	}
	if !stage.SameItem(pre) {
		s.logger.Info("cross-item dependency stored, not enforced by gate",
			zap.String("stage_id", stageID),
			zap.String("depends_on_stage_id", dependsOnID))
	}

	dep := &entity.StageDependency{StageID: stageID, DependsOnStageID: dependsOnID}
	if err := s.stageRepo.CreateDependency(ctx, dep); err != nil {
		return nil, fmt.Errorf("create dependency: %w", err)
	}
	dep.DependsOnName = pre.Name
	dep.DependsOnStatus = pre.Status
	go sse.PublishStageUpdate(stage.ProjectID, stageID, "dependency_added")
	return dep, nil
}

// RemoveDependency 删除依赖边
func (s *StageService) RemoveDependency(ctx context.Context, id string) error {
	dep, err := s.stageRepo.FindDependency(ctx, id)
	if err != nil {
		return translate(err, "dependency")
	}
	if err := s.stageRepo.DeleteDependency(ctx, id); err != nil {
		return fmt.Errorf("delete dependency: %w", err)
	}
	if stage, err := s.stageRepo.FindByID(ctx, dep.StageID); err == nil {
		go sse.PublishStageUpdate(stage.ProjectID, stage.ID, "dependency_removed")
	}
	return nil
}

// Schedule 项目排期视图：每个阶段的延期天数与关键标记，仅用于展示
func (s *StageService) Schedule(ctx context.Context, projectID string) (*planning.Schedule, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, translate(err, "project")
	}
	ix, err := s.loadIndex(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return planning.BuildSchedule(projectID, ix, s.now()), nil
}

// RecomputeProgress 手动重算项目进度
func (s *StageService) RecomputeProgress(ctx context.Context, projectID string) (int, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return 0, translate(err, "project")
	}
	return s.progress.Recompute(ctx, projectID)
}

func (s *StageService) logActivity(ctx context.Context, stage *entity.ProjectStage, action, from, to, userID string) {
	meta := map[string]interface{}{"project_id": stage.ProjectID, "name": stage.Name}
	if stage.ItemID != nil {
		meta["item_id"] = *stage.ItemID
	}
	if err := s.logRepo.LogActivity(ctx, entity.EntityStage, stage.ID, action, from, to, stage.Name, userID, meta); err != nil {
		s.logger.Warn("write activity log failed", zap.String("stage_id", stage.ID), zap.Error(err))
	}
}

// parseDate 解析 2006-01-02 或 RFC3339，空串返回 nil
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, validationf("无效的日期: %s", v)
}
