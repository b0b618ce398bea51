package service

import (
	"context"
	"fmt"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProjectService 项目服务
type ProjectService struct {
	projectRepo *repository.ProjectRepository
	itemRepo    *repository.ProjectItemRepository
	stageRepo   *repository.StageRepository
	docRepo     *repository.DocumentRepository
	progress    *ProgressAggregator
	template    config.ProjectConfig
	logger      *zap.Logger
	now         Clock
}

// NewProjectService 创建项目服务
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	itemRepo *repository.ProjectItemRepository,
	stageRepo *repository.StageRepository,
	docRepo *repository.DocumentRepository,
	progress *ProgressAggregator,
	template config.ProjectConfig,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		itemRepo:    itemRepo,
		stageRepo:   stageRepo,
		docRepo:     docRepo,
		progress:    progress,
		template:    template,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock 替换当前时间来源
func (s *ProjectService) SetClock(now Clock) {
	s.now = now
}

// List 项目列表
func (s *ProjectService) List(ctx context.Context, params repository.ProjectListParams) ([]entity.Project, int64, error) {
	return s.projectRepo.List(ctx, params)
}

// Get 项目详情（含条目与阶段）
func (s *ProjectService) Get(ctx context.Context, id string) (*entity.Project, error) {
	project, err := s.projectRepo.FindWithItems(ctx, id)
	if err != nil {
		return nil, translate(err, "project")
	}
	stages, err := s.stageRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	project.Stages = stages
	return project, nil
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name         string  `json:"name" binding:"required,max=256"`
	ClientName   string  `json:"client_name" binding:"max=256"`
	DealID       *string `json:"deal_id"`
	Status       string  `json:"status" binding:"omitempty,stage_status"`
	DurationDays int     `json:"duration_days" binding:"gte=0"`
	StartedAt    string  `json:"started_at"`
}

// Create 创建项目，进度初始为0
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest, userID string) (*entity.Project, error) {
	if req.Name == "" {
		return nil, validationf("项目名称不能为空")
	}
	status := req.Status
	if status == "" {
		status = entity.StatusPending
	}
	if !validStageStatus(status) {
		return nil, validationf("无效的项目状态: %s", status)
	}
	startedAt, err := parseDate(req.StartedAt)
	if err != nil {
		return nil, err
	}
	if req.DealID != nil && *req.DealID == "" {
		req.DealID = nil
	}
	project := &entity.Project{
		Name:         req.Name,
		ClientName:   req.ClientName,
		DealID:       req.DealID,
		Status:       status,
		Progress:     0,
		DurationDays: req.DurationDays,
		StartedAt:    startedAt,
		CreatedBy:    userID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	go sse.PublishProjectUpdate(project.ID, "created")
	return project, nil
}

// UpdateProjectRequest 更新项目请求。进度是派生值，不接受调用方写入。
type UpdateProjectRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=256"`
	ClientName   *string `json:"client_name"`
	Status       *string `json:"status" binding:"omitempty,stage_status"`
	DurationDays *int    `json:"duration_days" binding:"omitempty,gte=0"`
	StartedAt    *string `json:"started_at"`
}

// Update 更新项目
func (s *ProjectService) Update(ctx context.Context, id string, req *UpdateProjectRequest) (*entity.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "project")
	}
	if req.Name != nil {
		if *req.Name == "" {
			return nil, validationf("项目名称不能为空")
		}
		project.Name = *req.Name
	}
	if req.ClientName != nil {
		project.ClientName = *req.ClientName
	}
	if req.Status != nil {
		if !validStageStatus(*req.Status) {
			return nil, validationf("无效的项目状态: %s", *req.Status)
		}
		project.Status = *req.Status
	}
	if req.DurationDays != nil {
		project.DurationDays = *req.DurationDays
	}
	if req.StartedAt != nil {
		if project.StartedAt, err = parseDate(*req.StartedAt); err != nil {
			return nil, err
		}
	}
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	go sse.PublishProjectUpdate(project.ID, "updated")
	return project, nil
}

// Delete 删除项目及其条目、阶段、依赖
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if _, err := s.projectRepo.FindByID(ctx, id); err != nil {
		return translate(err, "project")
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	go sse.PublishProjectUpdate(id, "deleted")
	return nil
}

// ListItems 项目条目
func (s *ProjectService) ListItems(ctx context.Context, projectID string) ([]entity.ProjectItem, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, translate(err, "project")
	}
	return s.itemRepo.ListByProject(ctx, projectID)
}

// ItemRequest 条目请求
type ItemRequest struct {
	Name      string          `json:"name" binding:"required,max=256"`
	Article   string          `json:"article" binding:"max=64"`
	Quantity  int             `json:"quantity" binding:"gte=0"`
	Price     decimal.Decimal `json:"price"`
	SortOrder *int            `json:"sort_order"`
}

// CreateItem 新增条目
func (s *ProjectService) CreateItem(ctx context.Context, projectID string, req *ItemRequest) (*entity.ProjectItem, error) {
	if req.Name == "" {
		return nil, validationf("条目名称不能为空")
	}
	if req.Price.IsNegative() {
		return nil, validationf("价格不能为负")
	}
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, translate(err, "project")
	}
	item := &entity.ProjectItem{
		ProjectID: projectID,
		Name:      req.Name,
		Article:   req.Article,
		Quantity:  req.Quantity,
		Price:     req.Price,
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	} else {
		next, err := s.itemRepo.NextSortOrder(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("next sort order: %w", err)
		}
		item.SortOrder = next
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	go sse.PublishProjectUpdate(projectID, "item_created")
	return item, nil
}

// UpdateItem 更新条目
func (s *ProjectService) UpdateItem(ctx context.Context, id string, req *ItemRequest) (*entity.ProjectItem, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "item")
	}
	if req.Name == "" {
		return nil, validationf("条目名称不能为空")
	}
	if req.Price.IsNegative() {
		return nil, validationf("价格不能为负")
	}
	item.Name = req.Name
	item.Article = req.Article
	if req.Quantity > 0 {
		item.Quantity = req.Quantity
	}
	item.Price = req.Price
	if req.SortOrder != nil {
		item.SortOrder = *req.SortOrder
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	go sse.PublishProjectUpdate(item.ProjectID, "item_updated")
	return item, nil
}

// DeleteItem 删除条目及其阶段，随后重算项目进度
func (s *ProjectService) DeleteItem(ctx context.Context, id string) error {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "item")
	}
	if err := s.itemRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if _, err := s.progress.Recompute(ctx, item.ProjectID); err != nil {
		return err
	}
	return nil
}

// CreateFromDocument 由发票生成项目：每行一个条目，每个条目按模板生成阶段并依次串联依赖
func (s *ProjectService) CreateFromDocument(ctx context.Context, documentID, userID string) (*entity.Project, error) {
	doc, err := s.docRepo.FindByID(ctx, documentID)
	if err != nil {
		return nil, translate(err, "document")
	}
	if doc.Type != entity.DocTypeInvoice {
		return nil, validationf("只有发票可以生成项目")
	}
	if doc.Status == entity.DocStatusCancelled {
		return nil, validationf("已作废的发票不能生成项目")
	}
	if len(doc.Items) == 0 {
		return nil, validationf("发票没有明细行")
	}

	stepDays := s.template.StageDurationDays
	if stepDays <= 0 {
		stepDays = 1
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	name := doc.Number
	if doc.ClientName != "" {
		name = doc.ClientName + " / " + doc.Number
	}
	project := &entity.Project{
		ID:           repository.NewID(),
		Name:         name,
		ClientName:   doc.ClientName,
		DealID:       doc.DealID,
		DocumentID:   &doc.ID,
		Status:       entity.StatusPending,
		DurationDays: stepDays * len(s.template.DefaultStages),
		StartedAt:    &start,
		CreatedBy:    userID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	var stages []entity.ProjectStage
	var deps []entity.StageDependency
	for i, line := range doc.Items {
		item := &entity.ProjectItem{
			ProjectID: project.ID,
			Name:      line.Name,
			Article:   line.Article,
			Quantity:  line.Quantity,
			Price:     line.Price,
			SortOrder: i,
		}
		if err := s.itemRepo.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("create item: %w", err)
		}
		project.Items = append(project.Items, *item)

		prevID := ""
		for order, stageName := range s.template.DefaultStages {
			plannedStart := start.AddDate(0, 0, order*stepDays)
			plannedEnd := plannedStart.AddDate(0, 0, stepDays)
			stage := entity.ProjectStage{
				ID:               repository.NewID(),
				ProjectID:        project.ID,
				ItemID:           &item.ID,
				Name:             stageName,
				Status:           entity.StatusPending,
				PlannedStartDate: &plannedStart,
				PlannedEndDate:   &plannedEnd,
				SortOrder:        order,
			}
			stages = append(stages, stage)
			if prevID != "" {
				deps = append(deps, entity.StageDependency{
					ID:               repository.NewID(),
					StageID:          stage.ID,
					DependsOnStageID: prevID,
				})
			}
			prevID = stage.ID
		}
	}
	if err := s.stageRepo.CreateBatch(ctx, stages, deps); err != nil {
		return nil, fmt.Errorf("create stages: %w", err)
	}
	if project.Progress, err = s.progress.Recompute(ctx, project.ID); err != nil {
		return nil, err
	}
	project.Stages = stages

	s.logger.Info("project generated from invoice",
		zap.String("project_id", project.ID),
		zap.String("document", doc.Number),
		zap.Int("items", len(doc.Items)),
		zap.Int("stages", len(stages)))
	go sse.PublishProjectUpdate(project.ID, "created")
	return project, nil
}
