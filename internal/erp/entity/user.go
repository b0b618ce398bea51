package entity

import (
	"time"
)

// User 用户实体
type User struct {
	ID           string     `json:"id" gorm:"primaryKey;size:32"`
	Username     string     `json:"username" gorm:"size:64;not null;uniqueIndex"`
	Name         string     `json:"name" gorm:"size:64;not null"`
	Email        string     `json:"email" gorm:"size:128"`
	PasswordHash string     `json:"-" gorm:"size:128;not null"`
	Status       string     `json:"status" gorm:"size:16;not null;default:active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Roles []Role `json:"roles,omitempty" gorm:"many2many:user_roles;"`

	// 非数据库字段
	RoleCodes       []string `json:"role_codes,omitempty" gorm:"-"`
	PermissionCodes []string `json:"permission_codes,omitempty" gorm:"-"`
}

func (User) TableName() string {
	return "users"
}

// Role 角色实体
type Role struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:64;not null"`
	Description string    `json:"description" gorm:"type:text"`
	IsSystem    bool      `json:"is_system" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
}

func (Role) TableName() string {
	return "roles"
}

// Permission 权限实体
type Permission struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	Code        string    `json:"code" gorm:"size:64;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:64;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

// UserRole 用户角色关联
type UserRole struct {
	UserID    string    `json:"user_id" gorm:"primaryKey;size:32"`
	RoleID    string    `json:"role_id" gorm:"primaryKey;size:32"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// RolePermission 角色权限关联
type RolePermission struct {
	RoleID       string    `json:"role_id" gorm:"primaryKey;size:32"`
	PermissionID string    `json:"permission_id" gorm:"primaryKey;size:32"`
	CreatedAt    time.Time `json:"created_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

// 权限码
const (
	PermAll        = "*"
	PermDealWrite  = "deal:write"
	PermDocWrite   = "document:write"
	PermProjWrite  = "project:write"
	PermStockWrite = "warehouse:write"
	PermShipWrite  = "shipment:write"
	PermUserManage = "user:manage"
	RoleAdmin      = "admin"
)
