package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
)

// UserService 用户与角色服务
type UserService struct {
	repo     *repository.UserRepository
	roleRepo *repository.RoleRepository
}

// NewUserService 创建用户服务
func NewUserService(repo *repository.UserRepository, roleRepo *repository.RoleRepository) *UserService {
	return &UserService{repo: repo, roleRepo: roleRepo}
}

// List 用户列表
func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListAll(ctx)
}

// Get 用户详情
func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return user, nil
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=64"`
	Password string   `json:"password" binding:"required,min=6"`
	Name     string   `json:"name" binding:"required,max=64"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Roles    []string `json:"roles"`
}

// Create 创建用户，Roles 为角色编码
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	if req.Username == "" || req.Password == "" {
		return nil, validationf("用户名和密码不能为空")
	}
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, validationf("用户名已存在: %s", req.Username)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	roleIDs, err := s.resolveRoles(ctx, req.Roles)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = req.Username
	}
	user := &entity.User{
		Username:     req.Username,
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Status:       "active",
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if len(roleIDs) > 0 {
		if err := s.repo.SetRoles(ctx, user.ID, roleIDs); err != nil {
			return nil, fmt.Errorf("set roles: %w", err)
		}
	}
	return s.Get(ctx, user.ID)
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name     *string  `json:"name" binding:"omitempty,max=64"`
	Email    *string  `json:"email" binding:"omitempty,email"`
	Password *string  `json:"password" binding:"omitempty,min=6"`
	Status   *string  `json:"status" binding:"omitempty,oneof=active disabled"`
	Roles    []string `json:"roles"`
}

// Update 更新用户，Roles 非 nil 时覆盖角色
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "user")
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Password != nil {
		if user.PasswordHash, err = HashPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if req.Roles != nil {
		roleIDs, err := s.resolveRoles(ctx, req.Roles)
		if err != nil {
			return nil, err
		}
		if err := s.repo.SetRoles(ctx, user.ID, roleIDs); err != nil {
			return nil, fmt.Errorf("set roles: %w", err)
		}
	}
	return s.Get(ctx, user.ID)
}

// Delete 删除用户
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return translate(err, "user")
	}
	return s.repo.Delete(ctx, id)
}

func (s *UserService) resolveRoles(ctx context.Context, codes []string) ([]string, error) {
	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		role, err := s.roleRepo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, validationf("角色不存在: %s", code)
			}
			return nil, fmt.Errorf("find role: %w", err)
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}

// ListRoles 角色列表
func (s *UserService) ListRoles(ctx context.Context) ([]entity.Role, error) {
	return s.roleRepo.List(ctx)
}

// CreateRoleRequest 创建角色请求
type CreateRoleRequest struct {
	Code        string   `json:"code" binding:"required,max=64"`
	Name        string   `json:"name" binding:"required,max=64"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// CreateRole 创建角色
func (s *UserService) CreateRole(ctx context.Context, req *CreateRoleRequest) (*entity.Role, error) {
	if req.Code == "" {
		return nil, validationf("角色编码不能为空")
	}
	if _, err := s.roleRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, validationf("角色编码已存在: %s", req.Code)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find role: %w", err)
	}
	role := &entity.Role{Code: req.Code, Name: req.Name, Description: req.Description}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	if len(req.Permissions) > 0 {
		if err := s.roleRepo.SetPermissions(ctx, role.ID, req.Permissions); err != nil {
			return nil, fmt.Errorf("set permissions: %w", err)
		}
	}
	return s.roleRepo.FindByID(ctx, role.ID)
}

// SetRolePermissions 覆盖角色权限
func (s *UserService) SetRolePermissions(ctx context.Context, roleID string, codes []string) (*entity.Role, error) {
	if _, err := s.roleRepo.FindByID(ctx, roleID); err != nil {
		return nil, translate(err, "role")
	}
	if err := s.roleRepo.SetPermissions(ctx, roleID, codes); err != nil {
		return nil, fmt.Errorf("set permissions: %w", err)
	}
	return s.roleRepo.FindByID(ctx, roleID)
}

// EnsureAdminRole 确保存在拥有全部权限的管理员角色
func (s *UserService) EnsureAdminRole(ctx context.Context) (*entity.Role, error) {
	role, err := s.roleRepo.FindByCode(ctx, entity.RoleAdmin)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find role: %w", err)
	}
	return s.CreateRole(ctx, &CreateRoleRequest{
		Code:        entity.RoleAdmin,
		Name:        "管理员",
		Permissions: []string{entity.PermAll},
	})
}
