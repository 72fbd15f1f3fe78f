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

	"journeyhub/internal/config"
	"journeyhub/internal/microservices/pubsub"
	"journeyhub/internal/microservices/websocket"

	"github.com/gin-gonic/gin"
)

// The gateway terminates client websocket connections and fans broker
// messages out to the locally registered handles. Any number of gateway
// processes can subscribe to the same channel; each delivers to the
// connections it owns.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	redisClient, err := pubsub.NewRedisClient(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("could not connect to redis: %v", err)
	}
	defer redisClient.Close()

	registry := websocket.NewRegistry()
	fanout := websocket.NewFanout(registry, logger)
	subscriber := pubsub.NewSubscriber(redisClient, cfg.NotificationChannel, logger)

	subCtx, stopSub := context.WithCancel(context.Background())
	defer stopSub()
	go func() {
		if err := subscriber.Run(subCtx, fanout.HandleMessage); err != nil && subCtx.Err() == nil {
			log.Fatalf("broker subscription failed: %v", err)
		}
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"service":     "gateway-server",
			"connections": registry.Count(),
			"delivered":   fanout.Delivered(),
		})
	})
	r.GET("/ws", websocket.WSHandler(registry, logger))

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.GatewayPort),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("Gateway listening", "port", cfg.GatewayPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down gateway")

	stopSub()
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
