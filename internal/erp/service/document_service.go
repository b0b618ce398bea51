package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 单据状态流转
var documentTransitions = map[string][]string{
	entity.DocStatusDraft:  {entity.DocStatusSent, entity.DocStatusCancelled},
	entity.DocStatusSent:   {entity.DocStatusSigned, entity.DocStatusPaid, entity.DocStatusDraft, entity.DocStatusCancelled},
	entity.DocStatusSigned: {entity.DocStatusPaid, entity.DocStatusCancelled},
}

// DocumentService 单据服务
type DocumentService struct {
	repo    *repository.DocumentRepository
	storage ObjectStorage
	logger  *zap.Logger
	now     Clock
}

// NewDocumentService 创建单据服务。storage 为 nil 时附件功能不可用。
func NewDocumentService(repo *repository.DocumentRepository, storage ObjectStorage, logger *zap.Logger) *DocumentService {
	return &DocumentService{repo: repo, storage: storage, logger: logger, now: time.Now}
}

// SetClock 替换当前时间来源
func (s *DocumentService) SetClock(now Clock) {
	s.now = now
}

// List 单据列表
func (s *DocumentService) List(ctx context.Context, params repository.DocumentListParams) ([]entity.Document, int64, error) {
	return s.repo.List(ctx, params)
}

// Get 单据详情（含行）
func (s *DocumentService) Get(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	return doc, nil
}

// DocumentLine 单据行请求
type DocumentLine struct {
	Name     string          `json:"name" binding:"required,max=256"`
	Article  string          `json:"article" binding:"max=64"`
	Quantity int             `json:"quantity" binding:"gte=1"`
	Price    decimal.Decimal `json:"price"`
}

// CreateDocumentRequest 创建单据请求
type CreateDocumentRequest struct {
	Type       string         `json:"type" binding:"required,document_type"`
	DealID     *string        `json:"deal_id"`
	ClientName string         `json:"client_name" binding:"max=256"`
	Notes      string         `json:"notes"`
	Items      []DocumentLine `json:"items" binding:"dive"`
}

// UpdateDocumentRequest 更新单据请求，Items 非空时整体替换单据行
type UpdateDocumentRequest struct {
	ClientName *string        `json:"client_name"`
	Notes      *string        `json:"notes"`
	Items      []DocumentLine `json:"items" binding:"omitempty,dive"`
}

func buildLines(lines []DocumentLine) ([]entity.DocumentItem, decimal.Decimal, error) {
	items := make([]entity.DocumentItem, 0, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		if l.Name == "" {
			return nil, total, validationf("第%d行名称不能为空", i+1)
		}
		if l.Quantity < 1 {
			return nil, total, validationf("第%d行数量必须大于0", i+1)
		}
		if l.Price.IsNegative() {
			return nil, total, validationf("第%d行价格不能为负", i+1)
		}
		item := entity.DocumentItem{
			Name:      l.Name,
			Article:   l.Article,
			Quantity:  l.Quantity,
			Price:     l.Price,
			SortOrder: i,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	return items, total, nil
}

// Create 创建单据，编号按类型和年份递增
func (s *DocumentService) Create(ctx context.Context, req *CreateDocumentRequest, userID string) (*entity.Document, error) {
	prefix, ok := entity.DocumentNumberPrefix[req.Type]
	if !ok {
		return nil, validationf("无效的单据类型: %s", req.Type)
	}
	items, total, err := buildLines(req.Items)
	if err != nil {
		return nil, err
	}
	year := s.now().Year()
	last, err := s.repo.LastNumber(ctx, fmt.Sprintf("%s-%d-", prefix, year))
	if err != nil {
		return nil, fmt.Errorf("last number: %w", err)
	}
	if req.DealID != nil && *req.DealID == "" {
		req.DealID = nil
	}
	doc := &entity.Document{
		Number:     nextNumber(prefix, year, last),
		Type:       req.Type,
		DealID:     req.DealID,
		ClientName: req.ClientName,
		Status:     entity.DocStatusDraft,
		Total:      total,
		Notes:      req.Notes,
		CreatedBy:  userID,
		Items:      items,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Update 更新单据，只有草稿和已发送状态可修改
func (s *DocumentService) Update(ctx context.Context, id string, req *UpdateDocumentRequest) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	if doc.Status != entity.DocStatusDraft && doc.Status != entity.DocStatusSent {
		return nil, validationf("单据状态为 %s，不能修改", doc.Status)
	}
	if req.ClientName != nil {
		doc.ClientName = *req.ClientName
	}
	if req.Notes != nil {
		doc.Notes = *req.Notes
	}
	if req.Items != nil {
		items, total, err := buildLines(req.Items)
		if err != nil {
			return nil, err
		}
		doc.Total = total
		if err := s.repo.ReplaceItems(ctx, doc, items); err != nil {
			return nil, fmt.Errorf("replace items: %w", err)
		}
		return doc, nil
	}
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// UpdateStatus 单据状态流转
func (s *DocumentService) UpdateStatus(ctx context.Context, id, status string) (*entity.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	if doc.Status == status {
		return doc, nil
	}
	allowed := false
	for _, next := range documentTransitions[doc.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, validationf("单据状态不能从 %s 变为 %s", doc.Status, status)
	}
	doc.Status = status
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

// Delete 删除单据，已签署或已付款的单据不能删除
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translate(err, "document")
	}
	if doc.Status == entity.DocStatusSigned || doc.Status == entity.DocStatusPaid {
		return validationf("单据状态为 %s，不能删除", doc.Status)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if doc.FileKey != "" && s.storage != nil {
		if err := s.storage.Remove(ctx, doc.FileKey); err != nil {
			s.logger.Warn("remove attachment failed", zap.String("key", doc.FileKey), zap.Error(err))
		}
	}
	return nil
}

// UploadAttachment 上传附件，替换已有附件
func (s *DocumentService) UploadAttachment(ctx context.Context, id, fileName string, r io.Reader, size int64, contentType string) (*entity.Document, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("attachment storage: %w", ErrUnavailable)
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "document")
	}
	key := fmt.Sprintf("documents/%s/%s%s", doc.ID, repository.NewID(), filepath.Ext(fileName))
	if err := s.storage.Put(ctx, key, r, size, contentType); err != nil {
		return nil, err
	}
	oldKey := doc.FileKey
	doc.FileKey = key
	doc.FileName = fileName
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	if oldKey != "" {
		if err := s.storage.Remove(ctx, oldKey); err != nil {
			s.logger.Warn("remove old attachment failed", zap.String("key", oldKey), zap.Error(err))
		}
	}
	return doc, nil
}

// DownloadAttachment 下载附件
func (s *DocumentService) DownloadAttachment(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if s.storage == nil {
		return nil, "", fmt.Errorf("attachment storage: %w", ErrUnavailable)
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", translate(err, "document")
	}
	if doc.FileKey == "" {
		return nil, "", fmt.Errorf("attachment: %w", ErrNotFound)
	}
	rc, err := s.storage.Get(ctx, doc.FileKey)
	if err != nil {
		return nil, "", err
	}
	return rc, doc.FileName, nil
}
