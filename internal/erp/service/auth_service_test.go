package service

import (
	"context"
	"testing"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAdmin(t *testing.T, svc *Services) *entity.User {
	t.Helper()
	ctx := context.Background()
	_, err := svc.User.EnsureAdminRole(ctx)
	require.NoError(t, err)
	user, err := svc.User.Create(ctx, &CreateUserRequest{
		Username: "admin",
		Password: "secret123",
		Name:     "Администратор",
		Roles:    []string{entity.RoleAdmin},
	})
	require.NoError(t, err)
	return user
}

func TestLoginRefreshLogout(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	user := seedAdmin(t, svc)
	assert.Equal(t, []string{entity.RoleAdmin}, user.RoleCodes)
	assert.Contains(t, user.PermissionCodes, entity.PermAll)

	_, err := svc.Auth.Login(ctx, &LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Auth.Login(ctx, &LoginRequest{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	pair, err := svc.Auth.Login(ctx, &LoginRequest{Username: "admin", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.EqualValues(t, 3600, pair.ExpiresIn)
	assert.Equal(t, user.ID, pair.User.ID)

	// access token 不能当 refresh token 用
	_, err = svc.Auth.RefreshToken(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	next, err := svc.Auth.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// 旧 refresh token 只能用一次
	_, err = svc.Auth.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Auth.Logout(ctx, next.RefreshToken))
	_, err = svc.Auth.RefreshToken(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	user := seedAdmin(t, svc)

	disabled := "disabled"
	_, err := svc.User.Update(ctx, user.ID, &UpdateUserRequest{Status: &disabled})
	require.NoError(t, err)

	_, err = svc.Auth.Login(ctx, &LoginRequest{Username: "admin", Password: "secret123"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMemoryRefreshStoreExpiry(t *testing.T) {
	store := NewMemoryRefreshStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "u1", time.Minute))
	userID, err := store.Take(ctx, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = store.Take(ctx, "jti-1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, store.Save(ctx, "jti-2", "u1", -time.Second))
	_, err = store.Take(ctx, "jti-2")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserServiceRoles(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	seedAdmin(t, svc)

	_, err := svc.User.Create(ctx, &CreateUserRequest{Username: "admin", Password: "secret123", Name: "dup"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.User.Create(ctx, &CreateUserRequest{Username: "manager", Password: "secret123", Name: "M", Roles: []string{"ghost"}})
	assert.ErrorIs(t, err, ErrValidation)

	role, err := svc.User.CreateRole(ctx, &CreateRoleRequest{
		Code:        "sales",
		Name:        "Продажи",
		Permissions: []string{entity.PermDealWrite, entity.PermDocWrite},
	})
	require.NoError(t, err)
	assert.Len(t, role.Permissions, 2)

	manager, err := svc.User.Create(ctx, &CreateUserRequest{Username: "manager", Password: "secret123", Name: "M", Roles: []string{"sales"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{entity.PermDealWrite, entity.PermDocWrite}, manager.PermissionCodes)

	role, err = svc.User.SetRolePermissions(ctx, role.ID, []string{entity.PermDealWrite})
	require.NoError(t, err)
	assert.Len(t, role.Permissions, 1)

	again, err := svc.User.EnsureAdminRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, again.Code)

	roles, err := svc.User.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}
