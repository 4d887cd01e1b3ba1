package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hospital-management-system/config"
	"hospital-management-system/internal/infrastructure/cache"
	"hospital-management-system/internal/infrastructure/database"
	"hospital-management-system/internal/repository"
	"hospital-management-system/internal/service"

	"github.com/sirupsen/logrus"
)

// Standalone reminder sweep worker. Deploy this instead of the in-process
// scheduler when the API runs with more than one replica; the Redis sweep
// lock keeps multiple workers from dispatching the same rows.
func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	log := logrus.StandardLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	appointmentRepo := repository.NewAppointmentRepository()
	slotRepo := repository.NewSlotRepository()
	settingRepo := repository.NewNotificationSettingRepository()
	notificationLogRepo := repository.NewNotificationLogRepository()

	sink := service.NewLogSink(log)
	sweepLock := service.NewRedisSweepLock(redisClient, cfg.Scheduler.LockTTL)
	scheduler := service.NewReminderScheduler(db, log, appointmentRepo, notificationLogRepo, settingRepo, slotRepo, sink, sweepLock, cfg.Scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down worker...")
		cancel()
	}()

	scheduler.Run(ctx)

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	redisClient.Close()

	log.Info("Worker shutdown complete")
}
