// Package main runs the background job worker (selfie compression and upload).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/weddingbets/backend/config"
	"github.com/weddingbets/backend/internal/auth"
	"github.com/weddingbets/backend/internal/worker"
	"github.com/weddingbets/backend/pkg/database"
	"github.com/weddingbets/backend/pkg/imaging"
	"github.com/weddingbets/backend/pkg/queue"
	"github.com/weddingbets/backend/pkg/redis"
	"github.com/weddingbets/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	if !cfg.AWS.Enabled() {
		logger.Fatal("s3 is not configured; set AWS_REGION and the bucket names")
	}
	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:           cfg.AWS.Region,
		AccessKeyID:      cfg.AWS.AccessKeyID,
		SecretAccessKey:  cfg.AWS.SecretAccessKey,
		Endpoint:         cfg.AWS.Endpoint,
		ChatPhotosBucket: cfg.AWS.ChatPhotosBucket,
		SelfiesBucket:    cfg.AWS.SelfiesBucket,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewSelfieProcessor(
		auth.NewRepository(pool),
		s3Client,
		s3Client.SelfiesBucket(),
		imaging.NewCompressor(cfg.Image.MaxBytes, cfg.Image.MaxWidth),
		jobQueue,
		logger,
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	<-done
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
