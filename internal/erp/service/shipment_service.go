package service

import (
	"context"
	"fmt"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const shipmentNumberPrefix = "SHP"

// 发货单状态流转，delivered 与 cancelled 为终态
var shipmentTransitions = map[string][]string{
	entity.ShipmentPending: {entity.ShipmentPacked, entity.ShipmentCancelled},
	entity.ShipmentPacked:  {entity.ShipmentShipped, entity.ShipmentCancelled},
	entity.ShipmentShipped: {entity.ShipmentDelivered, entity.ShipmentCancelled},
}

// ShipmentService 发货服务
type ShipmentService struct {
	repo      *repository.ShipmentRepository
	stockRepo *repository.WarehouseRepository
	warehouse *WarehouseService
	logRepo   *repository.ActivityLogRepository
	logger    *zap.Logger
	now       Clock
}

// NewShipmentService 创建发货服务
func NewShipmentService(
	repo *repository.ShipmentRepository,
	stockRepo *repository.WarehouseRepository,
	warehouse *WarehouseService,
	logRepo *repository.ActivityLogRepository,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		repo:      repo,
		stockRepo: stockRepo,
		warehouse: warehouse,
		logRepo:   logRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock 替换当前时间来源
func (s *ShipmentService) SetClock(now Clock) {
	s.now = now
}

// List 发货单列表
func (s *ShipmentService) List(ctx context.Context, status, projectID string, page, pageSize int) ([]entity.Shipment, int64, error) {
	return s.repo.List(ctx, status, projectID, page, pageSize)
}

// Get 发货单详情
func (s *ShipmentService) Get(ctx context.Context, id string) (*entity.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "shipment")
	}
	return shipment, nil
}

// ShipmentLineRequest 发货明细请求
type ShipmentLineRequest struct {
	WarehouseItemID string          `json:"warehouse_item_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"decimal_positive"`
}

// CreateShipmentRequest 创建发货单请求
type CreateShipmentRequest struct {
	ProjectID   *string               `json:"project_id"`
	DealID      *string               `json:"deal_id"`
	Address     string                `json:"address"`
	PlannedDate string                `json:"planned_date"`
	Lines       []ShipmentLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Create 创建发货单，明细中的物料必须存在
func (s *ShipmentService) Create(ctx context.Context, req *CreateShipmentRequest, userID string) (*entity.Shipment, error) {
	if len(req.Lines) == 0 {
		return nil, validationf("发货单至少需要一行明细")
	}
	planned, err := parseDate(req.PlannedDate)
	if err != nil {
		return nil, err
	}
	lines := make([]entity.ShipmentLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		if !l.Quantity.IsPositive() {
			return nil, validationf("第%d行数量必须大于0", i+1)
		}
		if _, err := s.stockRepo.FindByID(ctx, l.WarehouseItemID); err != nil {
			return nil, translate(err, "warehouse item")
		}
		lines = append(lines, entity.ShipmentLine{WarehouseItemID: l.WarehouseItemID, Quantity: l.Quantity})
	}

	year := s.now().Year()
	last, err := s.repo.LastNumber(ctx, fmt.Sprintf("%s-%d-", shipmentNumberPrefix, year))
	if err != nil {
		return nil, fmt.Errorf("last number: %w", err)
	}
	shipment := &entity.Shipment{
		Number:      nextNumber(shipmentNumberPrefix, year, last),
		ProjectID:   emptyToNil(req.ProjectID),
		DealID:      emptyToNil(req.DealID),
		Address:     req.Address,
		Status:      entity.ShipmentPending,
		PlannedDate: planned,
		CreatedBy:   userID,
		Lines:       lines,
	}
	if err := s.repo.Create(ctx, shipment); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	go sse.PublishShipmentUpdate(shipment.ID, shipment.Status)
	return shipment, nil
}

// UpdateStatus 状态流转。进入 shipped 时按每行明细过一笔出库交易。
func (s *ShipmentService) UpdateStatus(ctx context.Context, id, status, userID string) (*entity.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "shipment")
	}
	from := shipment.Status
	allowed := false
	for _, next := range shipmentTransitions[from] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, validationf("发货单状态不能从 %s 变为 %s", from, status)
	}

	now := s.now()
	switch status {
	case entity.ShipmentShipped:
		for _, line := range shipment.Lines {
			_, err := s.warehouse.ApplyTransaction(ctx, line.WarehouseItemID, &TransactionRequest{
				Type:          entity.TxOut,
				Quantity:      line.Quantity,
				Notes:         "发货 " + shipment.Number,
				ReferenceType: entity.EntityShipment,
				ReferenceID:   shipment.ID,
			}, userID)
			if err != nil {
				return nil, fmt.Errorf("post stock for line %s: %w", line.ID, err)
			}
		}
		shipment.ShippedAt = &now
	case entity.ShipmentDelivered:
		shipment.DeliveredAt = &now
	}

	shipment.Status = status
	if err := s.repo.Update(ctx, shipment); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	if err := s.logRepo.LogActivity(ctx, entity.EntityShipment, shipment.ID, "status_change", from, status, shipment.Number, userID, nil); err != nil {
		s.logger.Warn("write activity log failed", zap.String("shipment_id", shipment.ID), zap.Error(err))
	}
	go sse.PublishShipmentUpdate(shipment.ID, shipment.Status)
	return shipment, nil
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
