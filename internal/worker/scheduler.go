package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"jobBoard/internal/repository"
	"jobBoard/internal/tasks"
)

// AlertCursorKey 记录上次扫描到的最新 published_at。
const AlertCursorKey = "alerts:cursor"

// initialLookback 是游标缺失时的回看窗口。
const initialLookback = 24 * time.Hour

// Enqueuer 是调度器使用的 asynq 客户端能力。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler 周期扫描新发布的职位，并为每个职位投递一个 alert:match 任务。
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	jobs     *repository.JobRepository
	redis    redis.UniversalClient
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewScheduler 创建调度器，spec 为 cron 表达式，例如 "@every 15m"。
func NewScheduler(spec string, jobRepo *repository.JobRepository, redisClient redis.UniversalClient, enqueuer Enqueuer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		spec:     spec,
		jobs:     jobRepo,
		redis:    redisClient,
		enqueuer: enqueuer,
		logger:   logger,
		now:      time.Now,
	}
}

// Start 注册定时任务并启动，同时立即执行一次扫描。
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("register alert scan %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("alert scheduler started", slog.String("spec", s.spec))

	go s.runOnce(ctx)
	return nil
}

// Stop 停止调度并等待正在运行的扫描结束。
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("alert scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	n, err := s.Scan(ctx)
	if err != nil {
		s.logger.Error("alert scan failed", slog.Any("error", err))
		return
	}
	s.logger.Info("alert scan completed", slog.Int("enqueued", n))
}

// Scan 从游标处读取新发布职位并投递任务，返回投递数量。
// 游标只在全部职位投递成功后前移。
func (s *Scheduler) Scan(ctx context.Context) (int, error) {
	since, err := s.cursor(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := s.jobs.PublishedSince(ctx, since)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	correlationID := uuid.NewString()
	latest := since
	enqueued := 0
	for _, row := range rows {
		task, err := tasks.NewAlertMatchTask(row.ID, correlationID)
		if err != nil {
			return enqueued, fmt.Errorf("build alert task for %s: %w", row.ID, err)
		}
		if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
			if !errors.Is(err, asynq.ErrTaskIDConflict) {
				return enqueued, fmt.Errorf("enqueue alert task for %s: %w", row.ID, err)
			}
		} else {
			enqueued++
		}
		if row.PublishedAt != nil && row.PublishedAt.After(latest) {
			latest = *row.PublishedAt
		}
	}

	if err := s.redis.Set(ctx, AlertCursorKey, latest.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		return enqueued, fmt.Errorf("store alert cursor: %w", err)
	}
	return enqueued, nil
}

func (s *Scheduler) cursor(ctx context.Context) (time.Time, error) {
	raw, err := s.redis.Get(ctx, AlertCursorKey).Result()
	if errors.Is(err, redis.Nil) {
		return s.now().Add(-initialLookback), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load alert cursor: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("invalid alert cursor, resetting", slog.String("value", raw))
		return s.now().Add(-initialLookback), nil
	}
	return t, nil
}
