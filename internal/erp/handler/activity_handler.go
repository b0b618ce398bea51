package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// ActivityHandler 操作日志
type ActivityHandler struct {
	svc *service.ActivityService
}

func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List GET /api/v1/activity?entity_type=&entity_id=
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	logs, total, err := h.svc.List(c.Request.Context(), c.Query("entity_type"), c.Query("entity_id"), page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, logs, total, page, pageSize)
}
