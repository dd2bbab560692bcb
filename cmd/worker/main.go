package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/solterra-club/backoffice/internal/app"
	"github.com/solterra-club/backoffice/internal/dashboard"
	"github.com/solterra-club/backoffice/internal/rbac"
	"github.com/solterra-club/backoffice/internal/shared"
	"github.com/solterra-club/backoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	configStore := shared.NewRedisStore(redisClient, cfg.StorePrefix, 0)
	permStore := rbac.NewStore(configStore, logger)
	if err := permStore.Restore(ctx); err != nil {
		logger.Error("restore permission overrides, using defaults", slog.Any("error", err))
	}
	registry := dashboard.NewRegistry(configStore, logger)
	if err := registry.Restore(ctx); err != nil {
		logger.Error("restore widget overrides, using defaults", slog.Any("error", err))
	}

	backupJob := jobs.NewSnapshotBackupJob(permStore, registry, configStore, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSnapshotBackup, Handler: backupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotBackupCron, Task: jobs.NewSnapshotBackupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
