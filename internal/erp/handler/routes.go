package handler

import (
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册 /api/v1 业务路由
func RegisterRoutes(r *gin.Engine, h *Handlers, jwtSecret string) {
	RegisterValidators()

	v1 := r.Group("/api/v1")

	// 认证（无需登录）
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	authorized := v1.Group("")
	authorized.Use(middleware.JWTAuth(jwtSecret))
	{
		authorized.GET("/auth/me", h.Auth.Me)
		authorized.POST("/auth/logout", h.Auth.Logout)

		// 用户与角色
		users := authorized.Group("/users", middleware.RequirePermission(entity.PermUserManage))
		{
			users.GET("", h.User.List)
			users.POST("", h.User.Create)
			users.GET("/:id", h.User.Get)
			users.PUT("/:id", h.User.Update)
			users.DELETE("/:id", h.User.Delete)
		}
		roles := authorized.Group("/roles", middleware.RequirePermission(entity.PermUserManage))
		{
			roles.GET("", h.User.ListRoles)
			roles.POST("", h.User.CreateRole)
			roles.PUT("/:id/permissions", middleware.RequireRole(middleware.AdminRole), h.User.SetRolePermissions)
		}

		// 商机看板
		dealWrite := middleware.RequirePermission(entity.PermDealWrite)
		deals := authorized.Group("/deals")
		{
			deals.GET("", h.Deal.List)
			deals.GET("/board", h.Deal.Board)
			deals.POST("", dealWrite, h.Deal.Create)
			deals.GET("/:id", h.Deal.Get)
			deals.PUT("/:id", dealWrite, h.Deal.Update)
			deals.PUT("/:id/move", dealWrite, h.Deal.Move)
			deals.DELETE("/:id", dealWrite, h.Deal.Delete)
		}

		// 单据
		docWrite := middleware.RequirePermission(entity.PermDocWrite)
		docs := authorized.Group("/documents")
		{
			docs.GET("", h.Document.List)
			docs.POST("", docWrite, h.Document.Create)
			docs.GET("/:id", h.Document.Get)
			docs.PUT("/:id", docWrite, h.Document.Update)
			docs.DELETE("/:id", docWrite, h.Document.Delete)
			docs.PUT("/:id/status", docWrite, h.Document.UpdateStatus)
			docs.POST("/:id/attachment", docWrite, h.Document.UploadAttachment)
			docs.GET("/:id/attachment", h.Document.DownloadAttachment)
			docs.GET("/:id/export", h.Document.Export)
			docs.POST("/:id/project", middleware.RequirePermission(entity.PermProjWrite), h.Document.CreateProject)
		}

		// 项目、条目、阶段、依赖
		projWrite := middleware.RequirePermission(entity.PermProjWrite)
		projects := authorized.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", projWrite, h.Project.Create)
			projects.GET("/:id", h.Project.Get)
			projects.PUT("/:id", projWrite, h.Project.Update)
			projects.DELETE("/:id", projWrite, h.Project.Delete)
			projects.GET("/:id/items", h.Project.ListItems)
			projects.POST("/:id/items", projWrite, h.Project.CreateItem)
			projects.GET("/:id/stages", h.Stage.List)
			projects.POST("/:id/stages", projWrite, h.Stage.Create)
			projects.GET("/:id/schedule", h.Project.Schedule)
		}
		authorized.PUT("/items/:id", projWrite, h.Project.UpdateItem)
		authorized.DELETE("/items/:id", projWrite, h.Project.DeleteItem)

		stages := authorized.Group("/stages")
		{
			stages.GET("/:id", h.Stage.Get)
			stages.PUT("/:id", projWrite, h.Stage.Update)
			stages.PUT("/:id/status", projWrite, h.Stage.UpdateStatus)
			stages.DELETE("/:id", projWrite, h.Stage.Delete)
			stages.GET("/:id/blockers", h.Stage.Blockers)
			stages.GET("/:id/dependencies", h.Stage.ListDependencies)
			stages.POST("/:id/dependencies", projWrite, h.Stage.AddDependency)
		}
		authorized.DELETE("/dependencies/:id", projWrite, h.Stage.RemoveDependency)

		// 仓库
		stockWrite := middleware.RequirePermission(entity.PermStockWrite)
		warehouse := authorized.Group("/warehouse")
		{
			warehouse.GET("/items", h.Warehouse.List)
			warehouse.POST("/items", stockWrite, h.Warehouse.Create)
			warehouse.GET("/items/:id", h.Warehouse.Get)
			warehouse.PUT("/items/:id", stockWrite, h.Warehouse.Update)
			warehouse.DELETE("/items/:id", stockWrite, h.Warehouse.Delete)
			warehouse.GET("/items/:id/transactions", h.Warehouse.ListTransactions)
			warehouse.POST("/items/:id/transactions", stockWrite, h.Warehouse.ApplyTransaction)
			warehouse.GET("/export", h.Warehouse.Export)
		}

		// 发货
		shipWrite := middleware.RequirePermission(entity.PermShipWrite)
		shipments := authorized.Group("/shipments")
		{
			shipments.GET("", h.Shipment.List)
			shipments.POST("", shipWrite, h.Shipment.Create)
			shipments.GET("/:id", h.Shipment.Get)
			shipments.PUT("/:id/status", shipWrite, h.Shipment.UpdateStatus)
		}

		authorized.GET("/activity", h.Activity.List)
		authorized.GET("/sse/events", h.SSE.Stream)
	}
}
