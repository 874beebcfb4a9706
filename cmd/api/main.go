package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"jobBoard/internal/ai"
	"jobBoard/internal/api"
	"jobBoard/internal/auth"
	"jobBoard/internal/catalog"
	"jobBoard/internal/config"
	"jobBoard/internal/database"
	"jobBoard/internal/notify"
	"jobBoard/internal/payment"
	"jobBoard/internal/repository"
	"jobBoard/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg := config.MustLoad()
	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	ctx := context.Background()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	privateKey, err := os.ReadFile(cfg.Auth.PrivateKeyPath)
	if err != nil {
		log.Fatalf("read jwt private key: %v", err)
	}
	publicKey, err := os.ReadFile(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("read jwt public key: %v", err)
	}
	authService, err := auth.NewAuthService(privateKey, publicKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	var scanner storage.Scanner
	if cfg.Clamd.Addr != "" {
		scanner = storage.NewClamdScanner(cfg.Clamd.Addr)
	}

	aiClient, err := ai.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	if err != nil {
		log.Fatalf("init ai client: %v", err)
	}
	if !aiClient.Configured() {
		logger.Warn("GEMINI_API_KEY not set, ai endpoints will return 503")
	}

	checkout := payment.NewStripeCheckout(cfg.Stripe.SecretKey, payment.CheckoutConfig{
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
		Currency:   cfg.Stripe.Currency,
	})
	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, posting submission will return 503")
	}

	jobCatalog := catalog.New(repository.NewJobRepository(db), redisClient, cfg.API.CatalogTTL, logger)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Deps{
		DB:    db,
		Redis: redisClient,
		Auth:  authService,
		LoginLimits: api.LoginLimits{
			RatePerHour:   cfg.Auth.LoginRateLimitPerHour,
			LockThreshold: cfg.Auth.LoginLockThreshold,
			LockTTL:       cfg.Auth.LoginLockTTL,
			CookieDomain:  cfg.Auth.CookieDomain,
		},
		Catalog:        jobCatalog,
		Storage:        storageClient,
		Scanner:        scanner,
		AI:             aiClient,
		Checkout:       checkout,
		Verifier:       payment.NewVerifier(cfg.Stripe.WebhookSecret),
		Processor:      payment.NewProcessor(db, notify.NewRedisPublisher(redisClient), logger),
		AllowedOrigins: cfg.API.Origins(),
		Logger:         logger,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
