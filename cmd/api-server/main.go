package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journeyhub/database"
	"journeyhub/internal/config"
	"journeyhub/internal/microservices/http-api/handler"
	"journeyhub/internal/microservices/http-api/middleware"
	"journeyhub/internal/microservices/http-api/repository"
	"journeyhub/internal/microservices/http-api/service"
	"journeyhub/internal/microservices/pubsub"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	// Database
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// Broker
	redisClient, err := pubsub.NewRedisClient(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}
	defer redisClient.Close()
	publisher := pubsub.NewRedisPublisher(redisClient, cfg.NotificationChannel)

	// Wiring
	notificationRepo := repository.NewNotificationRepository(db)
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, logger)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, logger)

	// Retention sweep runs for the lifetime of the process
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go notificationSvc.RunRetentionSweep(sweepCtx, cfg.RetentionSweepInterval, cfg.RetentionMaxAge)

	// Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "api-server"})
	})

	api := r.Group("/api")
	notifications := api.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationHandler.RegisterRoutes(notifications)

	// Diagnostic trigger stays outside auth for latency test tooling
	notificationHandler.RegisterTestRoute(api.Group("/notifications"))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down API server")

	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelDebug
	switch cfg.LogLevel {
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
