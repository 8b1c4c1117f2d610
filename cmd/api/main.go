package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"skillswap/internal/config"
	"skillswap/internal/db"
	apihttp "skillswap/internal/http"
	"skillswap/internal/repository"
	"skillswap/internal/service"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	profileRepo := repository.NewPgProfileRepository(pool)

	limiterWindow := time.Duration(cfg.SubmitRateWindowSec) * time.Second
	limiter := service.NewSubmitRateLimiter(limiterWindow, cfg.SubmitRateMax)
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
			limiter = service.NewRedisSubmitRateLimiter(redisClient, limiterWindow, cfg.SubmitRateMax)
		}
		cancel()
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	onboardingSvc := service.NewOnboardingService(logger, profileRepo, limiter)
	onboardingHandler := apihttp.NewOnboardingHandler(logger, onboardingSvc)

	var userHandler *apihttp.UserHandler
	if cfg.DevMode {
		logger.Warn("dev mode enabled: test user endpoint exposed")
		userHandler = apihttp.NewUserHandler(logger, profileRepo, tokenSvc)
	}

	router := apihttp.NewRouter(logger, tokenSvc, onboardingHandler, userHandler, cfg.DevMode)

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
