package repository

import (
	"context"
	"errors"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"gorm.io/gorm"
)

// UserRepository 用户仓库
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据ID查找用户（含角色与权限）
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	fillCodes(&user)
	return &user, nil
}

// FindByUsername 根据用户名查找用户
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	fillCodes(&user)
	return &user, nil
}

// ListAll 全部用户
func (r *UserRepository) ListAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Order("username ASC").
		Find(&users).Error
	return users, err
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = NewID()
	}
	return r.db.WithContext(ctx).Omit("Roles").Create(user).Error
}

// Update 更新用户
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Omit("Roles").Save(user).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", id).
		Update("last_login_at", time.Now()).Error
}

// SetRoles 覆盖用户角色
func (r *UserRepository) SetRoles(ctx context.Context, userID string, roleIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			ur := &entity.UserRole{UserID: userID, RoleID: roleID, CreatedAt: time.Now()}
			if err := tx.Create(ur).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 删除用户
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entity.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.User{}).Error
	})
}

func fillCodes(user *entity.User) {
	seen := make(map[string]bool)
	user.RoleCodes = user.RoleCodes[:0]
	user.PermissionCodes = user.PermissionCodes[:0]
	for _, role := range user.Roles {
		user.RoleCodes = append(user.RoleCodes, role.Code)
		for _, p := range role.Permissions {
			if !seen[p.Code] {
				seen[p.Code] = true
				user.PermissionCodes = append(user.PermissionCodes, p.Code)
			}
		}
	}
}

// RoleRepository 角色仓库
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository 创建角色仓库
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List 角色列表（含权限）
func (r *RoleRepository) List(ctx context.Context) ([]entity.Role, error) {
	var roles []entity.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Order("code ASC").Find(&roles).Error
	return roles, err
}

// FindByID 根据ID查找角色
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Preload("Permissions").Where("id = ?", id).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// FindByCode 根据编码查找角色
func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*entity.Role, error) {
	var role entity.Role
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// Create 创建角色
func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	if role.ID == "" {
		role.ID = NewID()
	}
	return r.db.WithContext(ctx).Omit("Permissions").Create(role).Error
}

// SetPermissions 覆盖角色权限，不存在的权限码自动创建
func (r *RoleRepository) SetPermissions(ctx context.Context, roleID string, codes []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&entity.RolePermission{}).Error; err != nil {
			return err
		}
		for _, code := range codes {
			var perm entity.Permission
			err := tx.Where("code = ?", code).First(&perm).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				perm = entity.Permission{ID: NewID(), Code: code, Name: code, CreatedAt: time.Now()}
				err = tx.Create(&perm).Error
			}
			if err != nil {
				return err
			}
			rp := &entity.RolePermission{RoleID: roleID, PermissionID: perm.ID, CreatedAt: time.Now()}
			if err := tx.Create(rp).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
