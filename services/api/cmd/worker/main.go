// Command worker consumes post events, keeps followers' feeds in redis and
// prunes expired sessions.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedfinder/pkg/cache"
	"feedfinder/pkg/config"
	"feedfinder/pkg/database"
	"feedfinder/pkg/jwt"
	"feedfinder/pkg/logger"
	"feedfinder/pkg/queue"
	"feedfinder/services/api/internal/repo/persistent"
	"feedfinder/services/api/internal/usecase"
)

const (
	handlerTimeout = 10 * time.Second
	sessionSweep   = time.Hour
	sweepTimeout   = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	// The worker has nothing to do without redis or the broker.
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	userRepo := persistent.NewUserRepository(db)
	feeds := usecase.NewFeedUseCase(
		persistent.NewPostRepository(db),
		userRepo,
		persistent.NewFollowRepository(db),
		redisClient,
		log,
	)

	err = queueClient.Consume(func(event queue.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		return feeds.HandleEvent(ctx, event)
	})
	if err != nil {
		log.Error("Failed to start consumer: %v", err)
		return
	}
	log.Info("Worker consuming %s", queue.EventsQueue)

	auth := usecase.NewAuthUseCase(userRepo, persistent.NewSessionRepository(db), jwt.NewService(cfg.JWTSecret), log)
	sweep := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		auth.CleanupSessions(ctx)
	}
	sweep()
	ticker := time.NewTicker(sessionSweep)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	for {
		select {
		case <-ticker.C:
			sweep()
		case err := <-queueClient.Done():
			// Exit non-zero so the supervisor restarts the worker.
			log.Error("Worker lost its broker connection: %v", err)
			os.Exit(1)
		case <-quit:
			log.Info("Shutting down worker...")
			return
		}
	}
}
