package handler

import (
	"errors"
	"strconv"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Deal      *DealHandler
	Document  *DocumentHandler
	Project   *ProjectHandler
	Stage     *StageHandler
	Warehouse *WarehouseHandler
	Shipment  *ShipmentHandler
	Activity  *ActivityHandler
	SSE       *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Deal:      NewDealHandler(svc.Deal),
		Document:  NewDocumentHandler(svc.Document, svc.Export, svc.Project),
		Project:   NewProjectHandler(svc.Project, svc.Stage),
		Stage:     NewStageHandler(svc.Stage),
		Warehouse: NewWarehouseHandler(svc.Warehouse, svc.Export),
		Shipment:  NewShipmentHandler(svc.Shipment),
		Activity:  NewActivityHandler(svc.Activity),
		SSE:       NewSSEHandler(),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessList 分页列表响应
func SuccessList(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceUnavailable 依赖服务不可用响应
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 50300, message)
}

// writeServiceError 把服务层错误映射为响应码
func writeServiceError(c *gin.Context, err error) {
	var blocked *service.DependencyBlockedError
	switch {
	case errors.As(err, &blocked):
		c.JSON(400, Response{
			Code:    40001,
			Message: blocked.Error(),
			Data: gin.H{
				"stage_id": blocked.StageID,
				"blockers": blocked.Blockers,
			},
		})
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		ServiceUnavailable(c, err.Error())
	default:
		_ = c.Error(err)
		InternalError(c, err.Error())
	}
}

// bindJSON 绑定请求体，失败时直接写 400
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
