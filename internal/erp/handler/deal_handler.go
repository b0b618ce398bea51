package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// DealHandler 商机看板处理器
type DealHandler struct {
	svc *service.DealService
}

// NewDealHandler 创建商机处理器
func NewDealHandler(svc *service.DealService) *DealHandler {
	return &DealHandler{svc: svc}
}

// List GET /api/v1/deals?stage=&manager_id=
func (h *DealHandler) List(c *gin.Context) {
	deals, err := h.svc.List(c.Request.Context(), c.Query("stage"), c.Query("manager_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": deals})
}

// Board GET /api/v1/deals/board
func (h *DealHandler) Board(c *gin.Context) {
	board, err := h.svc.Board(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"columns": board})
}

// Get GET /api/v1/deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	deal, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, deal)
}

// Create POST /api/v1/deals
func (h *DealHandler) Create(c *gin.Context) {
	var req service.DealRequest
	if !bindJSON(c, &req) {
		return
	}
	deal, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, deal)
}

// Update PUT /api/v1/deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	var req service.DealRequest
	if !bindJSON(c, &req) {
		return
	}
	deal, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, deal)
}

// Move PUT /api/v1/deals/:id/move
func (h *DealHandler) Move(c *gin.Context) {
	var req service.MoveDealRequest
	if !bindJSON(c, &req) {
		return
	}
	deal, err := h.svc.Move(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, deal)
}

// Delete DELETE /api/v1/deals/:id
func (h *DealHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}
