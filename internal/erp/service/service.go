package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("service unavailable")
)

// DependencyBlockedError 同条目前置阶段未完成，状态变更被拒绝
type DependencyBlockedError struct {
	StageID  string
	Blockers []string
}

func (e *DependencyBlockedError) Error() string {
	return "前置阶段未完成: " + strings.Join(e.Blockers, ", ")
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate 把仓库层的 ErrNotFound 转为服务层错误
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}

// Services 服务集合
type Services struct {
	Auth      *AuthService
	User      *UserService
	Deal      *DealService
	Document  *DocumentService
	Project   *ProjectService
	Stage     *StageService
	Warehouse *WarehouseService
	Shipment  *ShipmentService
	Activity  *ActivityService
	Export    *ExportService
	Progress  *ProgressAggregator
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端
	var storage ObjectStorage
	if cfg.MinIO.Endpoint != "" {
		minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, attachments disabled", zap.Error(err))
		} else {
			storage = NewMinIOStorage(minioClient, cfg.MinIO.Bucket)
		}
	}

	progress := NewProgressAggregator(repos.Project, repos.Stage, logger)
	warehouse := NewWarehouseService(repos.Warehouse, repos.ActivityLog, logger)
	stage := NewStageService(repos.Stage, repos.Item, repos.Project, repos.ActivityLog, progress, logger)
	project := NewProjectService(repos.Project, repos.Item, repos.Stage, repos.Document, progress, cfg.Project, logger)

	return &Services{
		Auth:      NewAuthService(repos.User, NewRefreshStore(rdb), cfg.JWT),
		User:      NewUserService(repos.User, repos.Role),
		Deal:      NewDealService(repos.Deal, rdb, logger),
		Document:  NewDocumentService(repos.Document, storage, logger),
		Project:   project,
		Stage:     stage,
		Warehouse: warehouse,
		Shipment:  NewShipmentService(repos.Shipment, repos.Warehouse, warehouse, repos.ActivityLog, logger),
		Activity:  NewActivityService(repos.ActivityLog),
		Export:    NewExportService(repos.Warehouse, repos.Document),
		Progress:  progress,
	}
}

// Clock 可替换的当前时间（测试中固定日期）
type Clock func() time.Time
