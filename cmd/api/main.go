package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skid-commons/internal/config"
	"skid-commons/internal/db"
	"skid-commons/internal/event"
	apihttp "skid-commons/internal/http"
	"skid-commons/internal/llm"
	"skid-commons/internal/metrics"
	"skid-commons/internal/repository"
	"skid-commons/internal/service"
	"skid-commons/internal/ws"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	metrics.Register()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	chatRepo := repository.NewPgChatRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	var llmClient llm.Client = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	if cfg.LLMAPIKey == "" {
		logger.Warn("llm api key not configured, using mock client")
		llmClient = &llm.MockClient{Response: llm.FallbackReply}
	}

	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	hub := ws.NewHub()
	bus := event.NewSinkBus(hub)

	policy := service.NewChatPolicyService(chatRepo)
	authSvc := service.NewAuthService(userRepo, jwtSvc)
	chatSvc := service.NewChatService(chatRepo, userRepo, policy, bus)
	messageSvc := service.NewMessageService(
		logger,
		messageRepo,
		chatRepo,
		policy,
		bus,
		llmClient,
		cfg.AssistantHistoryLimit,
		time.Duration(cfg.AssistantReplyTimeoutSeconds)*time.Second,
	)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, jwtSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc)
	wsHandler := ws.NewWSHandler(logger, hub, policy, apihttp.GetAuthClaims)

	router := apihttp.NewRouter(logger, jwtSvc, authHandler, chatHandler, messageHandler, wsHandler, cfg.WebOrigin)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
