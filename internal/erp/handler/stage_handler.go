package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// StageHandler 阶段与依赖处理器
type StageHandler struct {
	svc *service.StageService
}

// NewStageHandler 创建阶段处理器
func NewStageHandler(svc *service.StageService) *StageHandler {
	return &StageHandler{svc: svc}
}

// List GET /api/v1/projects/:id/stages
func (h *StageHandler) List(c *gin.Context) {
	stages, err := h.svc.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": stages})
}

// Create POST /api/v1/projects/:id/stages
func (h *StageHandler) Create(c *gin.Context) {
	var req service.CreateStageRequest
	if !bindJSON(c, &req) {
		return
	}
	stage, err := h.svc.Create(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, stage)
}

// Get GET /api/v1/stages/:id
func (h *StageHandler) Get(c *gin.Context) {
	stage, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, stage)
}

// Update PUT /api/v1/stages/:id
func (h *StageHandler) Update(c *gin.Context) {
	var req service.UpdateStageRequest
	if !bindJSON(c, &req) {
		return
	}
	stage, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, stage)
}

// UpdateStatus PUT /api/v1/stages/:id/status
func (h *StageHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,stage_status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	stage, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, stage)
}

// Delete DELETE /api/v1/stages/:id
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Blockers GET /api/v1/stages/:id/blockers
func (h *StageHandler) Blockers(c *gin.Context) {
	info, err := h.svc.Blockers(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, info)
}

// ListDependencies GET /api/v1/stages/:id/dependencies
func (h *StageHandler) ListDependencies(c *gin.Context) {
	deps, err := h.svc.ListDependencies(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": deps})
}

// AddDependency POST /api/v1/stages/:id/dependencies
func (h *StageHandler) AddDependency(c *gin.Context) {
	var req struct {
		DependsOnStageID string `json:"depends_on_stage_id" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	dep, err := h.svc.AddDependency(c.Request.Context(), c.Param("id"), req.DependsOnStageID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, dep)
}

// RemoveDependency DELETE /api/v1/dependencies/:id
func (h *StageHandler) RemoveDependency(c *gin.Context) {
	if err := h.svc.RemoveDependency(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}
