package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"jobBoard/internal/config"
	"jobBoard/internal/database"
	"jobBoard/internal/metrics"
	"jobBoard/internal/notify"
	"jobBoard/internal/repository"
	"jobBoard/internal/tasks"
	"jobBoard/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	jobRepo := repository.NewJobRepository(db)
	scheduler := worker.NewScheduler(cfg.Worker.AlertSchedule, jobRepo, redisClient, asynqClient, logger)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("start alert scheduler: %v", err)
	}
	defer scheduler.Stop()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	alertHandler := worker.NewAlertTaskHandler(
		jobRepo,
		repository.NewEngagementRepository(db),
		notify.NewRedisPublisher(redisClient),
		logger,
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeAlertMatch, alertHandler)

	logger.Info("worker service started", slog.String("redis_addr", redisAddr))
	if err := server.Start(mux); err != nil {
		log.Fatalf("start worker server: %v", err)
	}
	<-ctx.Done()
	server.Shutdown()
	logger.Info("worker service stopped")
}
