package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目与条目处理器
type ProjectHandler struct {
	svc      *service.ProjectService
	stageSvc *service.StageService
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(svc *service.ProjectService, stageSvc *service.StageService) *ProjectHandler {
	return &ProjectHandler{svc: svc, stageSvc: stageSvc}
}

// List GET /api/v1/projects?status=&keyword=&deal_id=
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	projects, total, err := h.svc.List(c.Request.Context(), repository.ProjectListParams{
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		DealID:   c.Query("deal_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, projects, total, page, pageSize)
}

// Get GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, project)
}

// Create POST /api/v1/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req service.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, project)
}

// Update PUT /api/v1/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req service.UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	project, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, project)
}

// Delete DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListItems GET /api/v1/projects/:id/items
func (h *ProjectHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// CreateItem POST /api/v1/projects/:id/items
func (h *ProjectHandler) CreateItem(c *gin.Context) {
	var req service.ItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.CreateItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, item)
}

// UpdateItem PUT /api/v1/items/:id
func (h *ProjectHandler) UpdateItem(c *gin.Context) {
	var req service.ItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.svc.UpdateItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, item)
}

// DeleteItem DELETE /api/v1/items/:id
func (h *ProjectHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Schedule GET /api/v1/projects/:id/schedule
func (h *ProjectHandler) Schedule(c *gin.Context) {
	schedule, err := h.stageSvc.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, schedule)
}
