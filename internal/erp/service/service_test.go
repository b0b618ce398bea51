package service

import (
	"context"
	"testing"
	"time"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             testutil.JWTSecret,
			AccessTokenExpire:  time.Hour,
			RefreshTokenExpire: 24 * time.Hour,
			Issuer:             "emerald-erp",
		},
		Project: config.ProjectConfig{
			DefaultStages:     []string{"设计", "生产", "安装"},
			StageDurationDays: 5,
		},
	}
}

// newTestServices 基于内存库的服务集合，无 Redis、无对象存储，时间固定
func newTestServices(t *testing.T) (*Services, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	svc := NewServices(repository.NewRepositories(db), nil, testConfig(), zap.NewNop())
	clock := func() time.Time { return fixedNow }
	svc.Stage.SetClock(clock)
	svc.Project.SetClock(clock)
	svc.Document.SetClock(clock)
	svc.Shipment.SetClock(clock)
	return svc, db
}

func mustCreateProject(t *testing.T, svc *Services, name string) string {
	t.Helper()
	p, err := svc.Project.Create(context.Background(), &CreateProjectRequest{Name: name}, "u1")
	require.NoError(t, err)
	return p.ID
}

func strPtr(s string) *string { return &s }
