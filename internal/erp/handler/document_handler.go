package handler

import (
	"io"
	"mime"
	"path/filepath"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/gin-gonic/gin"
)

const maxAttachmentSize = 50 << 20

// DocumentHandler 单据处理器（报价/发票/合同）
type DocumentHandler struct {
	svc     *service.DocumentService
	export  *service.ExportService
	project *service.ProjectService
}

// NewDocumentHandler 创建单据处理器
func NewDocumentHandler(svc *service.DocumentService, export *service.ExportService, project *service.ProjectService) *DocumentHandler {
	return &DocumentHandler{svc: svc, export: export, project: project}
}

// List GET /api/v1/documents?type=&status=&deal_id=
func (h *DocumentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	docs, total, err := h.svc.List(c.Request.Context(), repository.DocumentListParams{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		DealID:   c.Query("deal_id"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	SuccessList(c, docs, total, page, pageSize)
}

// Get GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, doc)
}

// Create POST /api/v1/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req service.CreateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.svc.Create(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, doc)
}

// Update PUT /api/v1/documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.UpdateDocumentRequest
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, doc)
}

// UpdateStatus PUT /api/v1/documents/:id/status
func (h *DocumentHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, doc)
}

// Delete DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, nil)
}

// UploadAttachment POST /api/v1/documents/:id/attachment (multipart, field "file")
func (h *DocumentHandler) UploadAttachment(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传文件")
		return
	}
	defer file.Close()
	if header.Size > maxAttachmentSize {
		BadRequest(c, "文件大小不能超过50MB")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	doc, err := h.svc.UploadAttachment(c.Request.Context(), c.Param("id"), header.Filename, file, header.Size, contentType)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Success(c, doc)
}

// DownloadAttachment GET /api/v1/documents/:id/attachment
func (h *DocumentHandler) DownloadAttachment(c *gin.Context) {
	rc, fileName, err := h.svc.DownloadAttachment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Status(200)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}

// Export GET /api/v1/documents/:id/export
func (h *DocumentHandler) Export(c *gin.Context) {
	f, filename, err := h.export.ExportDocument(c.Request.Context(), c.Param("id"))
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

// CreateProject POST /api/v1/documents/:id/project
func (h *DocumentHandler) CreateProject(c *gin.Context) {
	project, err := h.project.CreateFromDocument(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	Created(c, project)
}
