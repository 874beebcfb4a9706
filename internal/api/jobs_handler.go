package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/catalog"
	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/repository"
)

const similarLimit = 3

// JobsHandler 提供职位列表、搜索联想、详情与计数接口。
type JobsHandler struct {
	catalog *catalog.Catalog
	repo    *repository.JobRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewJobsHandler 构造 JobsHandler。
func NewJobsHandler(c *catalog.Catalog, repo *repository.JobRepository, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{catalog: c, repo: repo, logger: logger, now: time.Now}
}

// jobView 在职位上附加派生展示字段。
type jobView struct {
	jobs.Listing
	SalaryLabel string `json:"salary_label"`
	IsNew       bool   `json:"is_new"`
}

func (h *JobsHandler) views(list []jobs.Listing) []jobView {
	now := h.now()
	out := make([]jobView, 0, len(list))
	for _, l := range list {
		out = append(out, jobView{
			Listing:     l,
			SalaryLabel: jobs.SalaryLabel(jobs.SalaryValue(l)),
			IsNew:       jobs.IsNew(l, now),
		})
	}
	return out
}

// seqParam 回显客户端请求序号，前端据此丢弃过期响应（以最新请求为准）。
func seqParam(c *gin.Context) int64 {
	seq, _ := strconv.ParseInt(c.Query("seq"), 10, 64)
	return seq
}

// List 按 q/category/system/sort 过滤排序，并返回前 page 页。
func (h *JobsHandler) List(c *gin.Context) {
	pages := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			BadRequest(c, "page must be a positive integer")
			return
		}
		pages = n
	}

	all, err := h.catalog.Published(c.Request.Context())
	if err != nil {
		requestLogger(c, h.logger).Error("load catalog", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	criteria := jobs.Criteria{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		System:   c.Query("system"),
		SortBy:   jobs.ParseSortBy(c.Query("sort")),
	}
	filtered := jobs.Filter(all, criteria)
	visible, hasMore := jobs.Reveal(filtered, pages)

	c.JSON(http.StatusOK, gin.H{
		"items":    h.views(visible),
		"total":    len(filtered),
		"has_more": hasMore,
		"page":     pages,
		"seq":      seqParam(c),
	})
}

// Suggest 返回至多 5 条联想词。
func (h *JobsHandler) Suggest(c *gin.Context) {
	all, err := h.catalog.Published(c.Request.Context())
	if err != nil {
		requestLogger(c, h.logger).Error("load catalog", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suggestions": jobs.Suggest(all, c.Query("q")),
		"seq":         seqParam(c),
	})
}

// Facets 返回分类、标签、地点、档位与远程模式分布。
func (h *JobsHandler) Facets(c *gin.Context) {
	all, err := h.catalog.Published(c.Request.Context())
	if err != nil {
		requestLogger(c, h.logger).Error("load catalog", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, jobs.ComputeFacets(all))
}

// Get 返回已发布职位详情以及相似职位。
func (h *JobsHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	row, err := h.repo.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		requestLogger(c, h.logger).Error("get job", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if jobs.Status(row.Status) != jobs.StatusPublished {
		NotFound(c, "job not found")
		return
	}

	listing := repository.ToListing(*row)
	similar := []jobView{}
	if all, err := h.catalog.Published(ctx); err == nil {
		similar = h.views(jobs.Similar(all, listing, similarLimit))
	} else {
		requestLogger(c, h.logger).Warn("load catalog for similar jobs", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, gin.H{
		"job":     h.views([]jobs.Listing{listing})[0],
		"similar": similar,
	})
}

// IncrementViews 浏览数原子加一。
func (h *JobsHandler) IncrementViews(c *gin.Context) {
	value, err := h.repo.IncrementViews(c.Request.Context(), c.Param("id"))
	h.replyCounter(c, "views", value, err)
}

// IncrementMatches 匹配数原子加一。
func (h *JobsHandler) IncrementMatches(c *gin.Context) {
	value, err := h.repo.IncrementMatches(c.Request.Context(), c.Param("id"), 1)
	h.replyCounter(c, "matches", value, err)
}

func (h *JobsHandler) replyCounter(c *gin.Context, name string, value int64, err error) {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		requestLogger(c, h.logger).Error("increment counter", slog.String("counter", name), slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), name: value})
}

// Mine 返回当前雇主的全部职位及其状态。
func (h *JobsHandler) Mine(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	rows, err := h.repo.ListByEmployer(c.Request.Context(), userID)
	if err != nil {
		requestLogger(c, h.logger).Error("list employer jobs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	type ownedJob struct {
		jobs.Listing
		Status        string `json:"status"`
		PaymentStatus string `json:"stripe_payment_status"`
	}
	items := make([]ownedJob, 0, len(rows))
	for _, row := range rows {
		items = append(items, ownedJob{
			Listing:       repository.ToListing(row),
			Status:        row.Status,
			PaymentStatus: row.StripePaymentStatus,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Delete 雇主删除自己的职位。
func (h *JobsHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	logger := requestLogger(c, h.logger).With(slog.String("job_id", id))

	row, err := h.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		logger.Error("get job", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if row.EmployerID != userID && middleware.Role(c) != database.RoleAdmin {
		Forbidden(c, "not your job")
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("delete job", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.catalog.Invalidate(ctx)
	logger.Info("job deleted", slog.Uint64("user_id", uint64(userID)))
	c.Status(http.StatusNoContent)
}
