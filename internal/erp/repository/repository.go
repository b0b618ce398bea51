package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User        *UserRepository
	Role        *RoleRepository
	Deal        *DealRepository
	Document    *DocumentRepository
	Project     *ProjectRepository
	Item        *ProjectItemRepository
	Stage       *StageRepository
	Warehouse   *WarehouseRepository
	Shipment    *ShipmentRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Role:        NewRoleRepository(db),
		Deal:        NewDealRepository(db),
		Document:    NewDocumentRepository(db),
		Project:     NewProjectRepository(db),
		Item:        NewProjectItemRepository(db),
		Stage:       NewStageRepository(db),
		Warehouse:   NewWarehouseRepository(db),
		Shipment:    NewShipmentRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

// NewID 生成32位ID
func NewID() string {
	return uuid.New().String()[:32]
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func offsetOf(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
