// Package main runs the event booking HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventspot/backend/config"
	"github.com/eventspot/backend/internal/auth"
	"github.com/eventspot/backend/internal/bookings"
	"github.com/eventspot/backend/internal/events"
	"github.com/eventspot/backend/internal/middleware"
	"github.com/eventspot/backend/internal/worker"
	"github.com/eventspot/backend/pkg/database"
	"github.com/eventspot/backend/pkg/queue"
	"github.com/eventspot/backend/pkg/redis"
	"github.com/eventspot/backend/pkg/response"
	"github.com/eventspot/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var images events.ImageStore
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ImagesBucket:         cfg.AWS.ImagesBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			images = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Events
	eventRepo := events.NewRepository(pool)
	eventCache := events.NewCache(rdb.Client, logger)
	eventHandler := events.NewHandler(eventRepo, eventCache, images, logger)

	// Bookings
	jobQueue := queue.NewQueue(rdb.Client, logger)
	bookingRepo := bookings.NewRepository(pool)
	admission := bookings.NewService(bookingRepo, bookingRepo, jobQueue, logger)
	bookingHandler := bookings.NewHandler(admission, eventCache, logger)

	// Reconciliation worker runs in-process alongside the server; a dedicated
	// cmd/worker binary exists for running it separately.
	restoreProcessor := worker.NewSpotRestoreProcessor(bookingRepo, bookingRepo, jobQueue, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, "ok", nil) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", middleware.JWT(jwtService), authHandler.Me)
	}

	// Events (reads public, writes require a bearer token)
	router.GET("/events", eventHandler.List)
	eventGroup := router.Group("/events")
	eventGroup.Use(middleware.JWT(jwtService))
	{
		eventGroup.POST("", eventHandler.Create)
		eventGroup.GET("/mine", eventHandler.ListMine)
		eventGroup.PUT("/:id", eventHandler.Update)
		eventGroup.DELETE("/:id", eventHandler.Delete)
		eventGroup.POST("/:id/image", eventHandler.UploadImage)
	}
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/image", eventHandler.GetImage)

	// Bookings
	bookingGroup := router.Group("/bookings")
	bookingGroup.Use(middleware.JWT(jwtService))
	{
		bookingGroup.POST("/:eventId", bookingHandler.Book)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go restoreProcessor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
