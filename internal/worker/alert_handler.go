// Package worker 承载后台任务：定时扫描新发布职位，并把职位与候选人的提醒条件做匹配。
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobBoard/internal/database"
	"jobBoard/internal/errcode"
	"jobBoard/internal/jobs"
	"jobBoard/internal/metrics"
	"jobBoard/internal/notify"
	"jobBoard/internal/repository"
	"jobBoard/internal/tasks"
)

// AlertTaskHandler 负责消费 alert:match 任务。
type AlertTaskHandler struct {
	jobs       *repository.JobRepository
	engagement *repository.EngagementRepository
	notifier   notify.Publisher
	logger     *slog.Logger
}

// NewAlertTaskHandler 创建任务处理器。
func NewAlertTaskHandler(
	jobRepo *repository.JobRepository,
	engagement *repository.EngagementRepository,
	notifier notify.Publisher,
	logger *slog.Logger,
) *AlertTaskHandler {
	return &AlertTaskHandler{jobs: jobRepo, engagement: engagement, notifier: notifier, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *AlertTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseAlertMatchPayload(t)
	if err != nil {
		h.logger.Error("parse alert match payload failed", slog.Any("error", err))
		return errors.Join(err, asynq.SkipRetry)
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("job_id", payload.JobID),
	)

	job, err := h.jobs.Get(ctx, payload.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("job not found, skipping alert match")
			return nil
		}
		log.Error("load job failed", slog.Any("error", err))
		return err
	}
	if job.Status != string(jobs.StatusPublished) {
		log.Info("job no longer published, skipping alert match", slog.String("status", job.Status))
		return nil
	}

	alerts, err := h.engagement.AllAlerts(ctx)
	if err != nil {
		log.Error("load alerts failed", slog.Any("error", err))
		return err
	}

	matched := MatchAlerts(repository.ToListing(*job), alerts)
	if len(matched) == 0 {
		log.Info("no alerts matched")
		return nil
	}

	if _, err := h.jobs.IncrementMatches(ctx, job.ID, int64(len(matched))); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Info("job unpublished before matches were counted")
			return nil
		}
		log.Error("increment matches failed", slog.Any("error", err))
		return err
	}
	metrics.AddAlertMatches(len(matched))

	for _, alert := range matched {
		msg := notify.Message{
			Kind:          notify.KindAlertMatch,
			Status:        "matched",
			JobID:         job.ID,
			JobTitle:      job.Title,
			AlertID:       alert.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.OK,
		}
		if err := h.notifier.Publish(ctx, alert.UserID, msg); err != nil {
			log.Warn("publish alert notification failed",
				slog.Uint64("user_id", uint64(alert.UserID)),
				slog.Any("error", err),
			)
		}
	}

	log.Info("alert match completed", slog.Int("matched", len(matched)))
	return nil
}

// MatchAlerts 返回条件命中该职位的提醒。
func MatchAlerts(listing jobs.Listing, alerts []database.Alert) []database.Alert {
	var out []database.Alert
	for _, a := range alerts {
		criteria := jobs.Criteria{Query: a.Query, Category: a.Category, System: a.System}
		if jobs.Matches(listing, criteria) {
			out = append(out, a)
		}
	}
	return out
}
