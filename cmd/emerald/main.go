package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/NX-company/Emerald-ERP--sub000/internal/config"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/handler"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/repository"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/service"
	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/sse"
	"github.com/NX-company/Emerald-ERP--sub000/internal/middleware"
	"github.com/NX-company/Emerald-ERP--sub000/internal/platform"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := platform.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting emerald-erp service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := platform.InitDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := platform.Migrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	rdb := platform.InitRedis(cfg.Redis, zapLogger)
	if rdb != nil {
		defer rdb.Close()
	}

	sse.GlobalHub.SetLogger(zapLogger)

	repos := repository.NewRepositories(db)
	svc := service.NewServices(repos, rdb, cfg, zapLogger)

	if _, err := svc.User.EnsureAdminRole(context.Background()); err != nil {
		zapLogger.Warn("Ensure admin role failed", zap.Error(err))
	}

	h := handler.NewHandlers(svc)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/sse"})))

	registerRoutes(router, h, db, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // SSE 长连接
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, db *gorm.DB, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(r, h, cfg.JWT.Secret)
}
