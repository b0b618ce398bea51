package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// UserHandler 用户与角色管理
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取用户列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": users})
}

// Get GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, user)
}

// Create POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, user)
}

// Update PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	var req service.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, user)
}

// Delete DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == GetUserID(c) {
		BadRequest(c, "不能删除当前登录用户")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListRoles GET /api/v1/roles
func (h *UserHandler) ListRoles(c *gin.Context) {
	roles, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		InternalError(c, "获取角色列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": roles})
}

// CreateRole POST /api/v1/roles
func (h *UserHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.svc.CreateRole(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, role)
}

// SetRolePermissions PUT /api/v1/roles/:id/permissions
func (h *UserHandler) SetRolePermissions(c *gin.Context) {
	var req struct {
		Permissions []string `json:"permissions"`
	}
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.svc.SetRolePermissions(c.Request.Context(), c.Param("id"), req.Permissions)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, role)
}
