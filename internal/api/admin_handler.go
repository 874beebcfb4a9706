package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/catalog"
	"jobBoard/internal/repository"
)

// AdminHandler 提供后台概览与清理接口。
type AdminHandler struct {
	stats       *repository.StatsRepository
	subscribers *repository.SubscriberRepository
	jobs        *repository.JobRepository
	catalog     *catalog.Catalog
	logger      *slog.Logger
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(
	stats *repository.StatsRepository,
	subscribers *repository.SubscriberRepository,
	jobRepo *repository.JobRepository,
	c *catalog.Catalog,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{stats: stats, subscribers: subscribers, jobs: jobRepo, catalog: c, logger: logger}
}

// Stats 返回聚合统计。
func (h *AdminHandler) Stats(c *gin.Context) {
	st, err := h.stats.Compute(c.Request.Context())
	if err != nil {
		requestLogger(c, h.logger).Error("compute stats", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, st)
}

// PurgeSubscriber 物理删除订阅邮箱，?confirm 必须与邮箱一致。
func (h *AdminHandler) PurgeSubscriber(c *gin.Context) {
	email := repository.NormalizeEmail(c.Param("email"))
	if email == "" || repository.NormalizeEmail(c.Query("confirm")) != email {
		BadRequest(c, "confirm must repeat the subscriber email")
		return
	}
	if err := h.subscribers.Delete(c.Request.Context(), email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "subscriber not found")
			return
		}
		requestLogger(c, h.logger).Error("purge subscriber", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	requestLogger(c, h.logger).Info("subscriber purged")
	c.Status(http.StatusNoContent)
}

// PurgeJob 物理删除职位，?confirm 必须与职位 ID 一致。
func (h *AdminHandler) PurgeJob(c *gin.Context) {
	id := c.Param("id")
	if id == "" || c.Query("confirm") != id {
		BadRequest(c, "confirm must repeat the job id")
		return
	}
	ctx := c.Request.Context()
	if err := h.jobs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		requestLogger(c, h.logger).Error("purge job", slog.String("job_id", id), slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.catalog.Invalidate(ctx)
	requestLogger(c, h.logger).Info("job purged", slog.String("job_id", id))
	c.Status(http.StatusNoContent)
}

// PublishJob 审核通过已支付的职位并使目录缓存失效。
func (h *AdminHandler) PublishJob(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	job, err := h.jobs.Publish(ctx, id, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "job not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			Conflict(c, "only paid jobs pending review can be published")
		default:
			requestLogger(c, h.logger).Error("publish job", slog.String("job_id", id), slog.Any("error", err))
			Internal(c, "internal error")
		}
		return
	}
	h.catalog.Invalidate(ctx)
	c.JSON(http.StatusOK, repository.ToListing(*job))
}
