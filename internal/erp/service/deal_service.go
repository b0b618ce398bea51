package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	dealBoardCacheKey = "emerald:deals:board"
	dealBoardCacheTTL = 30 * time.Second
)

// DealService 商机服务
type DealService struct {
	repo   *repository.DealRepository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewDealService 创建商机服务。rdb 为 nil 时看板不走缓存。
func NewDealService(repo *repository.DealRepository, rdb *redis.Client, logger *zap.Logger) *DealService {
	return &DealService{repo: repo, rdb: rdb, logger: logger}
}

func validDealStage(stage string) bool {
	for _, s := range entity.DealStages {
		if s == stage {
			return true
		}
	}
	return false
}

// List 商机列表
func (s *DealService) List(ctx context.Context, stage, managerID string) ([]entity.Deal, error) {
	return s.repo.List(ctx, stage, managerID)
}

// Get 商机详情
func (s *DealService) Get(ctx context.Context, id string) (*entity.Deal, error) {
	deal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "deal")
	}
	return deal, nil
}

// Board 看板：按列分组，每列带金额合计
func (s *DealService) Board(ctx context.Context) ([]entity.DealColumn, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, dealBoardCacheKey).Result()
		if err == nil {
			var board []entity.DealColumn
			if json.Unmarshal([]byte(cached), &board) == nil {
				return board, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("read deal board cache failed", zap.Error(err))
		}
	}

	deals, err := s.repo.List(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	board := make([]entity.DealColumn, 0, len(entity.DealStages))
	index := make(map[string]int, len(entity.DealStages))
	for i, stage := range entity.DealStages {
		index[stage] = i
		board = append(board, entity.DealColumn{Stage: stage, Deals: []entity.Deal{}, Amount: decimal.Zero})
	}
	for _, d := range deals {
		i, ok := index[d.Stage]
		if !ok {
			continue
		}
		board[i].Deals = append(board[i].Deals, d)
		board[i].Amount = board[i].Amount.Add(d.Amount)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(board); err == nil {
			if err := s.rdb.Set(ctx, dealBoardCacheKey, data, dealBoardCacheTTL).Err(); err != nil {
				s.logger.Warn("write deal board cache failed", zap.Error(err))
			}
		}
	}
	return board, nil
}

func (s *DealService) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, dealBoardCacheKey).Err(); err != nil {
		s.logger.Warn("invalidate deal board cache failed", zap.Error(err))
	}
}

// DealRequest 商机请求
type DealRequest struct {
	Title       string          `json:"title" binding:"required,max=256"`
	ClientName  string          `json:"client_name" binding:"max=256"`
	ClientPhone string          `json:"client_phone" binding:"max=32"`
	ClientEmail string          `json:"client_email" binding:"omitempty,email,max=128"`
	Amount      decimal.Decimal `json:"amount"`
	Stage       string          `json:"stage" binding:"omitempty,deal_stage"`
	ManagerID   *string         `json:"manager_id"`
	Notes       string          `json:"notes"`
}

// Create 创建商机，放在所在列末尾
func (s *DealService) Create(ctx context.Context, req *DealRequest) (*entity.Deal, error) {
	if req.Title == "" {
		return nil, validationf("商机标题不能为空")
	}
	if req.Amount.IsNegative() {
		return nil, validationf("金额不能为负")
	}
	stage := req.Stage
	if stage == "" {
		stage = entity.DealStageNew
	}
	if !validDealStage(stage) {
		return nil, validationf("无效的看板列: %s", stage)
	}
	order, err := s.repo.NextSortOrder(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("next sort order: %w", err)
	}
	deal := &entity.Deal{
		Title:       req.Title,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		Amount:      req.Amount,
		Stage:       stage,
		SortOrder:   order,
		ManagerID:   req.ManagerID,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, deal); err != nil {
		return nil, fmt.Errorf("create deal: %w", err)
	}
	s.invalidate(ctx)
	go sse.PublishDealUpdate(deal.ID, deal.Stage, "created")
	return deal, nil
}

// Update 更新商机字段，列变化请使用 Move
func (s *DealService) Update(ctx context.Context, id string, req *DealRequest) (*entity.Deal, error) {
	deal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "deal")
	}
	if req.Title == "" {
		return nil, validationf("商机标题不能为空")
	}
	if req.Amount.IsNegative() {
		return nil, validationf("金额不能为负")
	}
	deal.Title = req.Title
	deal.ClientName = req.ClientName
	deal.ClientPhone = req.ClientPhone
	deal.ClientEmail = req.ClientEmail
	deal.Amount = req.Amount
	deal.ManagerID = req.ManagerID
	deal.Notes = req.Notes
	if req.Stage != "" && req.Stage != deal.Stage {
		if !validDealStage(req.Stage) {
			return nil, validationf("无效的看板列: %s", req.Stage)
		}
		order, err := s.repo.NextSortOrder(ctx, req.Stage)
		if err != nil {
			return nil, fmt.Errorf("next sort order: %w", err)
		}
		deal.Stage = req.Stage
		deal.SortOrder = order
	}
	if err := s.repo.Update(ctx, deal); err != nil {
		return nil, fmt.Errorf("update deal: %w", err)
	}
	s.invalidate(ctx)
	go sse.PublishDealUpdate(deal.ID, deal.Stage, "updated")
	return deal, nil
}

// MoveDealRequest 看板拖拽请求
type MoveDealRequest struct {
	Stage    string `json:"stage" binding:"required,deal_stage"`
	Position int    `json:"position" binding:"gte=0"`
}

// Move 把商机移到指定列的指定位置
func (s *DealService) Move(ctx context.Context, id string, req *MoveDealRequest) (*entity.Deal, error) {
	if !validDealStage(req.Stage) {
		return nil, validationf("无效的看板列: %s", req.Stage)
	}
	if req.Position < 0 {
		return nil, validationf("位置不能为负")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, translate(err, "deal")
	}
	if err := s.repo.Move(ctx, id, req.Stage, req.Position); err != nil {
		return nil, fmt.Errorf("move deal: %w", err)
	}
	s.invalidate(ctx)
	deal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "deal")
	}
	go sse.PublishDealUpdate(deal.ID, deal.Stage, "moved")
	return deal, nil
}

// Delete 删除商机
func (s *DealService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return translate(err, "deal")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	s.invalidate(ctx)
	go sse.PublishDealUpdate(id, "", "deleted")
	return nil
}
