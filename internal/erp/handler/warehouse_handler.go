package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// WarehouseHandler 仓库处理器
type WarehouseHandler struct {
	svc    *service.WarehouseService
	export *service.ExportService
}

// NewWarehouseHandler 创建仓库处理器
func NewWarehouseHandler(svc *service.WarehouseService, export *service.ExportService) *WarehouseHandler {
	return &WarehouseHandler{svc: svc, export: export}
}

// List GET /api/v1/warehouse/items?category=&status=&keyword=
func (h *WarehouseHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), repository.WarehouseListParams{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, items, total, page, pageSize)
}

// Get GET /api/v1/warehouse/items/:id
func (h *WarehouseHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, item)
}

// Create POST /api/v1/warehouse/items
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req service.WarehouseItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, item)
}

// Update PUT /api/v1/warehouse/items/:id
func (h *WarehouseHandler) Update(c *gin.Context) {
	var req service.WarehouseItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, item)
}

// Delete DELETE /api/v1/warehouse/items/:id
func (h *WarehouseHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ApplyTransaction POST /api/v1/warehouse/items/:id/transactions
func (h *WarehouseHandler) ApplyTransaction(c *gin.Context) {
	var req service.TransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	tx, err := h.svc.ApplyTransaction(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, tx)
}

// ListTransactions GET /api/v1/warehouse/items/:id/transactions
func (h *WarehouseHandler) ListTransactions(c *gin.Context) {
	page, pageSize := GetPagination(c)
	txs, total, err := h.svc.ListTransactions(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, txs, total, page, pageSize)
}

// Export GET /api/v1/warehouse/export
func (h *WarehouseHandler) Export(c *gin.Context) {
	f, filename, err := h.export.ExportWarehouse(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
