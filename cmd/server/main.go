// Package main runs the wedding bets HTTP server with WebSocket push and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/weddingbets/backend/config"
	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/auth"
	"github.com/weddingbets/backend/internal/chat"
	"github.com/weddingbets/backend/internal/games"
	"github.com/weddingbets/backend/internal/middleware"
	"github.com/weddingbets/backend/internal/models"
	"github.com/weddingbets/backend/internal/polls"
	"github.com/weddingbets/backend/internal/realtime"
	"github.com/weddingbets/backend/internal/scheduler"
	"github.com/weddingbets/backend/internal/timergate"
	"github.com/weddingbets/backend/pkg/database"
	"github.com/weddingbets/backend/pkg/imaging"
	"github.com/weddingbets/backend/pkg/queue"
	"github.com/weddingbets/backend/pkg/redis"
	"github.com/weddingbets/backend/pkg/response"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Object storage is optional; without it photos and selfies are skipped.
	var (
		chatObjects   chat.ObjectStore
		selfieObjects auth.ObjectStore
		chatBucket    string
		selfieBucket  string
	)
	if cfg.AWS.Enabled() {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:           cfg.AWS.Region,
			AccessKeyID:      cfg.AWS.AccessKeyID,
			SecretAccessKey:  cfg.AWS.SecretAccessKey,
			Endpoint:         cfg.AWS.Endpoint,
			ChatPhotosBucket: cfg.AWS.ChatPhotosBucket,
			SelfiesBucket:    cfg.AWS.SelfiesBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			chatObjects, selfieObjects = s3Client, s3Client
			chatBucket, selfieBucket = s3Client.ChatPhotosBucket(), s3Client.SelfiesBucket()
		}
	}

	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	compressor := imaging.NewCompressor(cfg.Image.MaxBytes, cfg.Image.MaxWidth)
	gate := timergate.NewGate(nil)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authService := auth.NewService(auth.NewRepository(pool), jwtService, auth.NewDenylist(rdb.Client),
		selfieObjects, selfieBucket, jobQueue, logger)
	authHandler := auth.NewHandler(authService, logger)

	// Games
	gameRepo := games.NewRepository(pool)
	gameHandler := games.NewHandler(games.NewService(gameRepo, gate, hub, logger))

	// Polls
	pollHandler := polls.NewHandler(polls.NewService(polls.NewRepository(pool), hub, logger))

	// Chat
	chatService := chat.NewService(chat.NewRepository(pool), chatObjects, chatBucket, compressor, hub, logger)
	chatHandler := chat.NewHandler(chatService)

	// Timer expiry announcements
	announcer := scheduler.NewExpiryAnnouncer(gameRepo, hub, logger)
	sweeper, err := scheduler.Start(cfg.Scheduler.ExpirySpec, announcer, logger)
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			response.Error(c, apperr.Server("redis unavailable", err))
			return
		}
		if err := pool.Ping(c.Request.Context()); err != nil {
			response.Error(c, apperr.Server("database unavailable", err))
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/login", authHandler.Login)
	}

	admin := middleware.RequireRole(string(models.RoleAdmin))
	api := router.Group("")
	api.Use(middleware.JWT(authService.Authenticate))
	{
		api.GET("/auth/profile", authHandler.Profile)
		api.POST("/auth/logout", authHandler.Logout)

		api.GET("/games", gameHandler.List)
		api.POST("/games", admin, gameHandler.Create)
		api.GET("/games/:id", gameHandler.Get)
		api.GET("/games/:id/results", gameHandler.Results)
		api.POST("/games/:id/winners", admin, gameHandler.ConfirmWinners)
		api.POST("/questions/:id/answers", gameHandler.SubmitAnswer)
		api.POST("/answers/:id/votes", gameHandler.SubmitVote)
		api.DELETE("/votes/:id", gameHandler.RemoveVote)

		api.GET("/games/:id/polls", pollHandler.ListActive)
		api.POST("/games/:id/polls", admin, pollHandler.Create)
		api.GET("/polls/:id/results", pollHandler.Results)
		api.POST("/polls/:id/votes", pollHandler.Vote)
		api.POST("/polls/:id/close", admin, pollHandler.Close)

		api.GET("/rooms", chatHandler.ListRooms)
		api.POST("/rooms", chatHandler.CreateRoom)
		api.GET("/rooms/:id/messages", chatHandler.Messages)
		api.POST("/rooms/:id/messages", chatHandler.SendMessage)
	}

	// WebSocket (token in query; mobile clients cannot set headers on the upgrade)
	validate := func(ctx context.Context, token string) (uuid.UUID, string, error) {
		identity, err := authService.Authenticate(ctx, token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return identity.UserID, identity.Role, nil
	}
	authorize := func(ctx context.Context, userID uuid.UUID, topic string) error {
		kind, id, err := realtime.ParseTopic(topic)
		if err != nil {
			return apperr.InvalidInput("invalid topic")
		}
		if kind == realtime.KindRoom {
			return chatService.CanSubscribe(ctx, userID, id)
		}
		return nil
	}
	router.GET("/ws", realtime.ServeWs(hub, logger, validate, authorize))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-sweeper.Stop().Done()
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
