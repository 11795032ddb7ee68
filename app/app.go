package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	_ "github.com/O-HAM-MA/apartner-sub000/ddd/adapter/http"
	applayer "github.com/O-HAM-MA/apartner-sub000/ddd/application/app"
	"github.com/O-HAM-MA/apartner-sub000/ddd/infrastructure/database/po"
	"github.com/O-HAM-MA/apartner-sub000/internal/resource"
	"github.com/O-HAM-MA/apartner-sub000/internal/scheduler"
	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
	"github.com/O-HAM-MA/apartner-sub000/pkg/manager"
	"github.com/O-HAM-MA/apartner-sub000/pkg/middleware"
	"github.com/O-HAM-MA/apartner-sub000/pkg/redisclient"
	"github.com/O-HAM-MA/apartner-sub000/pkg/repository"
	"github.com/O-HAM-MA/apartner-sub000/pkg/sse"
)

// Run is the entrypoint of the notification service.
func Run() {
	fmt.Println("[STARTUP] Starting apartner notification service...")

	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	cfgPath := resolveConfigPath()
	fmt.Println("[STARTUP] Loading config file...")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	fmt.Println("[STARTUP] Initializing logger...")
	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Infof("Notification service starting version=%s", "1.0.0")

	logger.Infof("Initializing database connection...")
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize database error=%v", err))
	}
	defer db.Close()
	if err := db.AutoMigrate(&po.Notification{}); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to migrate schema error=%v", err))
	}
	resource.SetMainDB(db.Self)
	logger.Infof("Database connected")

	// Redis is optional. Without it unread counts are computed from the DB
	// on every query.
	if cfg.Redis.Enabled {
		logger.Infof("Initializing Redis client...")
		redisCli, err := redisclient.New(cfg.Redis)
		if err != nil {
			logger.Errorf("Failed to initialize redis; unread counts will be uncached error=%v", err)
		} else {
			defer func() {
				logger.Infof("Closing Redis client...")
				_ = redisCli.Close()
			}()
			resource.SetCacheRedis(redisCli.Raw())
		}
	}

	// Size the connection registry before any stream can register.
	sse.ConfigureDefault(
		sse.WithBufferSize(cfg.Push.BufferSize),
		sse.WithReconnectCeiling(cfg.Push.ReconnectCeiling),
	)

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	logger.Infof("Creating HTTP routes...")
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestContextMiddleware(),
		middleware.RequestLogMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   "apartner-notification",
			"timestamp": time.Now().Unix(),
		})
	})

	logger.Infof("Registering routes...")
	manager.RegisterAllRoutes(router)
	logger.Infof("Routes registered")

	logger.Infof("Starting background scheduler...")
	jobs := scheduler.New(
		applayer.DefaultDispatcher(),
		applayer.DefaultNotificationApp(),
		cfg.Push,
		cfg.Sweep,
	)
	if err := jobs.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start scheduler error=%v", err))
	}
	defer jobs.Stop()

	port := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server starting port=%s service=%s", port, "apartner-notification")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()

	logger.Infof("HTTP server started port=%s health_url=%s", port, fmt.Sprintf("http://localhost%s/health", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Received shutdown signal, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("Server forced to close error=%v", err))
	}

	logger.Infof("Server exited safely")

	if logService != nil {
		logger.Infof("Closing logger...")
		logService.Close()
	}
}

// resolveConfigPath determines which config file to use.
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if env := os.Getenv("CONFIG_ENV"); env != "" {
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
	return "configs/config.dev.yaml"
}
