package service

import (
	"context"
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/stock"
	"github.com/NX-company/Emerald-ERP--sub000/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WarehouseService 仓库服务。状态只由 RecomputeStatus 写入，调用方不能直接设置。
type WarehouseService struct {
	repo    *repository.WarehouseRepository
	logRepo *repository.ActivityLogRepository
	logger  *zap.Logger
}

// NewWarehouseService 创建仓库服务
func NewWarehouseService(repo *repository.WarehouseRepository, logRepo *repository.ActivityLogRepository, logger *zap.Logger) *WarehouseService {
	return &WarehouseService{repo: repo, logRepo: logRepo, logger: logger}
}

// List 物料列表
func (s *WarehouseService) List(ctx context.Context, params repository.WarehouseListParams) ([]entity.WarehouseItem, int64, error) {
	return s.repo.List(ctx, params)
}

// Get 物料详情
func (s *WarehouseService) Get(ctx context.Context, id string) (*entity.WarehouseItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "warehouse item")
	}
	return item, nil
}

// WarehouseItemRequest 物料请求
type WarehouseItemRequest struct {
	Name     string          `json:"name" binding:"required,max=256"`
	SKU      string          `json:"sku" binding:"max=64"`
	Category string          `json:"category" binding:"max=64"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit" binding:"max=20"`
	MinStock decimal.Decimal `json:"min_stock"`
	Price    decimal.Decimal `json:"price"`
	Location string          `json:"location" binding:"max=128"`
}

func (r *WarehouseItemRequest) validate() error {
	if r.Name == "" {
		return validationf("物料名称不能为空")
	}
	if r.MinStock.IsNegative() {
		return validationf("最低库存不能为负")
	}
	if r.Price.IsNegative() {
		return validationf("价格不能为负")
	}
	return nil
}

// Create 创建物料并计算状态
func (s *WarehouseService) Create(ctx context.Context, req *WarehouseItemRequest) (*entity.WarehouseItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := &entity.WarehouseItem{
		Name:     req.Name,
		SKU:      req.SKU,
		Category: req.Category,
		Quantity: req.Quantity,
		Unit:     unit,
		MinStock: req.MinStock,
		Price:    req.Price,
		Location: req.Location,
		Status:   entity.StockNormal,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create warehouse item: %w", err)
	}
	if _, err := s.recompute(ctx, item); err != nil {
		return nil, err
	}
	go sse.PublishWarehouseUpdate(item.ID, item.Status, "created")
	return item, nil
}

// Update 更新物料字段并重算状态
func (s *WarehouseService) Update(ctx context.Context, id string, req *WarehouseItemRequest) (*entity.WarehouseItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "warehouse item")
	}
	item.Name = req.Name
	item.SKU = req.SKU
	item.Category = req.Category
	item.Quantity = req.Quantity
	if req.Unit != "" {
		item.Unit = req.Unit
	}
	item.MinStock = req.MinStock
	item.Price = req.Price
	item.Location = req.Location
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update warehouse item: %w", err)
	}
	if _, err := s.recompute(ctx, item); err != nil {
		return nil, err
	}
	go sse.PublishWarehouseUpdate(item.ID, item.Status, "updated")
	return item, nil
}

// Delete 删除物料
func (s *WarehouseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return translate(err, "warehouse item")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete warehouse item: %w", err)
	}
	go sse.PublishWarehouseUpdate(id, "", "deleted")
	return nil
}

// RecomputeStatus 重新读取物料并按数量与最低库存派生状态，只有变化时才写入。返回是否写入。
func (s *WarehouseService) RecomputeStatus(ctx context.Context, id string) (bool, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, translate(err, "warehouse item")
	}
	return s.recompute(ctx, item)
}

func (s *WarehouseService) recompute(ctx context.Context, item *entity.WarehouseItem) (bool, error) {
	status := stock.DeriveStatus(item.Quantity, item.MinStock)
	if status == item.Status {
		return false, nil
	}
	if err := s.repo.UpdateStatus(ctx, item.ID, status); err != nil {
		return false, fmt.Errorf("update status: %w", err)
	}
	s.logger.Debug("warehouse status changed",
		zap.String("item_id", item.ID),
		zap.String("from", item.Status),
		zap.String("to", status))
	metrics.WarehouseStatusChanges.WithLabelValues(status).Inc()
	item.Status = status
	return true, nil
}

// RecomputeAll 重算全部物料状态（运维命令），返回写入数量
func (s *WarehouseService) RecomputeAll(ctx context.Context) (int, error) {
	items, _, err := s.repo.List(ctx, repository.WarehouseListParams{})
	if err != nil {
		return 0, fmt.Errorf("list warehouse items: %w", err)
	}
	changed := 0
	for i := range items {
		ok, err := s.recompute(ctx, &items[i])
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// TransactionRequest 库存交易请求
type TransactionRequest struct {
	Type          string          `json:"type" binding:"required,tx_type"`
	Quantity      decimal.Decimal `json:"quantity" binding:"decimal_positive"`
	Notes         string          `json:"notes"`
	ReferenceType string          `json:"reference_type" binding:"max=32"`
	ReferenceID   string          `json:"reference_id" binding:"max=32"`
}

// ApplyTransaction 入库加、出库减（不做下限检查），写入数量，追加交易记录，再重算状态
func (s *WarehouseService) ApplyTransaction(ctx context.Context, itemID string, req *TransactionRequest, userID string) (*entity.WarehouseTransaction, error) {
	if req.Type != entity.TxIn && req.Type != entity.TxOut {
		return nil, validationf("无效的交易类型: %s", req.Type)
	}
	if !req.Quantity.IsPositive() {
		return nil, validationf("数量必须大于0")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, translate(err, "warehouse item")
	}

	before := item.Quantity
	after, err := stock.Apply(before, req.Type, req.Quantity)
	if err != nil {
		return nil, validationf("%s", err.Error())
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, after); err != nil {
		return nil, fmt.Errorf("update quantity: %w", err)
	}
	item.Quantity = after

	tx := &entity.WarehouseTransaction{
		ItemID:        item.ID,
		Type:          req.Type,
		Quantity:      req.Quantity,
		UserID:        userID,
		Notes:         req.Notes,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	metrics.WarehouseTransactions.WithLabelValues(req.Type).Inc()

	fromStatus := item.Status
	if _, err := s.recompute(ctx, item); err != nil {
		return nil, err
	}

	meta := map[string]interface{}{
		"type":            req.Type,
		"quantity":        req.Quantity.String(),
		"quantity_before": before.String(),
		"quantity_after":  after.String(),
	}
	if err := s.logRepo.LogActivity(ctx, entity.EntityWarehouse, item.ID, "transaction_"+req.Type, fromStatus, item.Status, req.Notes, userID, meta); err != nil {
		s.logger.Warn("write activity log failed", zap.String("item_id", item.ID), zap.Error(err))
	}
	go sse.PublishWarehouseUpdate(item.ID, item.Status, "transaction")
	return tx, nil
}

// ListTransactions 物料交易记录
func (s *WarehouseService) ListTransactions(ctx context.Context, itemID string, page, pageSize int) ([]entity.WarehouseTransaction, int64, error) {
	if _, err := s.repo.FindByID(ctx, itemID); err != nil {
		return nil, 0, translate(err, "warehouse item")
	}
	return s.repo.ListTransactions(ctx, itemID, page, pageSize)
}
