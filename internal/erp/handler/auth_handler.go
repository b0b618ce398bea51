package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login 用户名密码登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, pair)
}

// RefreshRequest 刷新/登出请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh 刷新Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, pair)
}

// Me 当前用户
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.GetCurrentUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, user)
}

// Logout 登出，作废 refresh token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}
