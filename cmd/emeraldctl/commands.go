package main

import (
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/NX-company/Emerald-ERP--sub000/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	projectID  string
	outputPath string
	username   string
	password   string
	fullName   string
	roleCodes  []string

	rootCmd = &cobra.Command{
		Use:          "emeraldctl",
		Short:        "Emerald ERP 运维工具",
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "创建或补齐数据库表",
		RunE:  runMigrate,
	}

	recomputeCmd = &cobra.Command{
		Use:   "recompute",
		Short: "重算派生字段",
	}
	recomputeProgressCmd = &cobra.Command{
		Use:   "progress",
		Short: "重算项目进度（默认全部项目）",
		RunE:  runRecomputeProgress,
	}
	recomputeStockCmd = &cobra.Command{
		Use:   "stock",
		Short: "重算全部物料库存状态",
		RunE:  runRecomputeStock,
	}

	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "导出 Excel",
	}
	exportWarehouseCmd = &cobra.Command{
		Use:   "warehouse",
		Short: "导出仓库物料清单",
		RunE:  runExportWarehouse,
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "用户管理",
	}
	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "创建用户（--role admin 时自动补建管理员角色）",
		RunE:  runUserCreate,
	}
)

func init() {
	recomputeProgressCmd.Flags().StringVar(&projectID, "project", "", "只重算指定项目")
	recomputeCmd.AddCommand(recomputeProgressCmd, recomputeStockCmd)

	exportWarehouseCmd.Flags().StringVarP(&outputPath, "output", "o", "warehouse.xlsx", "输出文件")
	exportCmd.AddCommand(exportWarehouseCmd)

	userCreateCmd.Flags().StringVar(&username, "username", "", "用户名")
	userCreateCmd.Flags().StringVar(&password, "password", "", "密码")
	userCreateCmd.Flags().StringVar(&fullName, "name", "", "姓名（默认同用户名）")
	userCreateCmd.Flags().StringSliceVar(&roleCodes, "role", nil, "角色编码，可重复")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
	userCmd.AddCommand(userCreateCmd)

	rootCmd.AddCommand(migrateCmd, recomputeCmd, exportCmd, userCmd)
}

// cliEnv 命令执行所需的依赖
type cliEnv struct {
	logger *zap.Logger
	db     *gorm.DB
	svc    *service.Services
}

func setup() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := platform.InitLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := platform.InitDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	// CLI 不使用 Redis 缓存
	svc := service.NewServices(repository.NewRepositories(db), nil, cfg, logger)
	return &cliEnv{logger: logger, db: db, svc: svc}, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	if err := platform.Migrate(rt.db); err != nil {
		return err
	}
	if _, err := rt.svc.User.EnsureAdminRole(cmd.Context()); err != nil {
		return err
	}
	rt.logger.Info("Migration completed")
	return nil
}

func runRecomputeProgress(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	ctx := cmd.Context()
	if projectID != "" {
		progress, err := rt.svc.Progress.Recompute(ctx, projectID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "project %s progress=%d\n", projectID, progress)
		return nil
	}
	n, err := rt.svc.Progress.RecomputeAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recomputed %d projects\n", n)
	return nil
}

func runRecomputeStock(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	changed, err := rt.svc.Warehouse.RecomputeAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d items changed status\n", changed)
	return nil
}

func runExportWarehouse(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	f, _, err := rt.svc.Export.ExportWarehouse(cmd.Context())
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save %s: %w", outputPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", outputPath)
	return nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	ctx := cmd.Context()
	if _, err := rt.svc.User.EnsureAdminRole(ctx); err != nil {
		return err
	}
	name := fullName
	if name == "" {
		name = username
	}
	user, err := rt.svc.User.Create(ctx, &service.CreateUserRequest{
		Username: username,
		Password: password,
		Name:     name,
		Roles:    roleCodes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
	return nil
}
