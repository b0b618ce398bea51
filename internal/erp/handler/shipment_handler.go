package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// ShipmentHandler 发货处理器
type ShipmentHandler struct {
	svc *service.ShipmentService
}

// NewShipmentHandler 创建发货处理器
func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// List GET /api/v1/shipments?status=&project_id=
func (h *ShipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	shipments, total, err := h.svc.List(c.Request.Context(), c.Query("status"), c.Query("project_id"), page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, shipments, total, page, pageSize)
}

// Get GET /api/v1/shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipment, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, shipment)
}

// Create POST /api/v1/shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req service.CreateShipmentRequest
	if !bindJSON(c, &req) {
		return
	}
	shipment, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, shipment)
}

// UpdateStatus PUT /api/v1/shipments/:id/status
func (h *ShipmentHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	shipment, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, shipment)
}
