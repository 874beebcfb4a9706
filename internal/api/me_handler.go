package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/catalog"
	"jobBoard/internal/database"
	"jobBoard/internal/jobs"
	"jobBoard/internal/repository"
)

const recommendationLimit = 6

// MeHandler 处理候选人的收藏、推荐、投递与提醒。
type MeHandler struct {
	engagement *repository.EngagementRepository
	jobs       *repository.JobRepository
	catalog    *catalog.Catalog
	logger     *slog.Logger
}

// NewMeHandler 构造 MeHandler。
func NewMeHandler(engagement *repository.EngagementRepository, jobRepo *repository.JobRepository, c *catalog.Catalog, logger *slog.Logger) *MeHandler {
	return &MeHandler{engagement: engagement, jobs: jobRepo, catalog: c, logger: logger}
}

// ToggleSaved 收藏/取消收藏，返回最新收藏集合。
func (h *MeHandler) ToggleSaved(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ids, saved, err := h.engagement.ToggleSaved(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		requestLogger(c, h.logger).Error("toggle saved job", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved, "saved_job_ids": ids})
}

// Saved 返回收藏的职位 ID 与仍在发布中的职位。
func (h *MeHandler) Saved(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	ids, err := h.engagement.SavedIDs(ctx, userID)
	if err != nil {
		requestLogger(c, h.logger).Error("list saved jobs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	listings, err := h.jobs.ListByIDs(ctx, ids)
	if err != nil {
		requestLogger(c, h.logger).Error("load saved jobs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved_job_ids": ids, "jobs": listings})
}

// Recommendations 依据收藏职位推荐相似职位；没有收藏时返回排序后的前几条。
func (h *MeHandler) Recommendations(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger)

	all, err := h.catalog.Published(ctx)
	if err != nil {
		logger.Error("load catalog", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	ids, err := h.engagement.SavedIDs(ctx, userID)
	if err != nil {
		logger.Error("list saved jobs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	savedSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		savedSet[id] = struct{}{}
	}
	saved := make([]jobs.Listing, 0, len(ids))
	for _, l := range all {
		if _, ok := savedSet[l.ID]; ok {
			saved = append(saved, l)
		}
	}

	var recs []jobs.Listing
	if len(saved) == 0 {
		recs, _ = jobs.Reveal(jobs.Filter(all, jobs.Criteria{SortBy: jobs.SortNewest}), 1)
		if len(recs) > recommendationLimit {
			recs = recs[:recommendationLimit]
		}
	} else {
		recs = jobs.Recommend(all, saved, recommendationLimit)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": recs})
}

type applyRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// Apply 记录投递。
func (h *MeHandler) Apply(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	app, err := h.engagement.Apply(c.Request.Context(), userID, req.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "job not found")
			return
		}
		requestLogger(c, h.logger).Error("apply", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusCreated, applicationView(*app))
}

// Applications 列出投递记录。
func (h *MeHandler) Applications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	apps, err := h.engagement.Applications(c.Request.Context(), userID)
	if err != nil {
		requestLogger(c, h.logger).Error("list applications", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	items := make([]gin.H, 0, len(apps))
	for _, a := range apps {
		items = append(items, applicationView(a))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type moveApplicationRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// MoveApplication 推进投递状态或更新备注。
func (h *MeHandler) MoveApplication(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	appID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid application id")
		return
	}
	var req moveApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var target jobs.ApplicationStatus
	if req.Status != "" {
		target, err = jobs.ParseApplicationStatus(req.Status)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
	} else {
		current, err := h.currentApplicationStatus(c, userID, uint(appID))
		if err != nil {
			return
		}
		target = current
	}

	app, err := h.engagement.MoveApplication(ctx, userID, uint(appID), target, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			NotFound(c, "application not found")
		case errors.Is(err, repository.ErrInvalidTransition):
			Conflict(c, err.Error())
		default:
			requestLogger(c, h.logger).Error("move application", slog.Any("error", err))
			Internal(c, "internal error")
		}
		return
	}
	c.JSON(http.StatusOK, applicationView(*app))
}

func (h *MeHandler) currentApplicationStatus(c *gin.Context, userID, appID uint) (jobs.ApplicationStatus, error) {
	apps, err := h.engagement.Applications(c.Request.Context(), userID)
	if err != nil {
		requestLogger(c, h.logger).Error("list applications", slog.Any("error", err))
		Internal(c, "internal error")
		return "", err
	}
	for _, a := range apps {
		if a.ID == appID {
			return jobs.ApplicationStatus(a.Status), nil
		}
	}
	NotFound(c, "application not found")
	return "", repository.ErrNotFound
}

func applicationView(a database.Application) gin.H {
	return gin.H{
		"id":         a.ID,
		"job_id":     a.JobID,
		"status":     a.Status,
		"notes":      a.Notes,
		"created_at": a.CreatedAt,
		"updated_at": a.UpdatedAt,
	}
}

type alertRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	System   string `json:"system"`
}

// CreateAlert 保存提醒条件，至少需要一个有效谓词。
func (h *MeHandler) CreateAlert(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	alert := database.Alert{
		UserID:   userID,
		Query:    strings.TrimSpace(req.Query),
		Category: strings.TrimSpace(req.Category),
		System:   strings.TrimSpace(req.System),
	}
	if alert.Query == "" && isAllOrEmpty(alert.Category, jobs.AllCategories) && isAllOrEmpty(alert.System, jobs.AllSystems) {
		BadRequest(c, "alert needs a query, category or system")
		return
	}
	if err := h.engagement.CreateAlert(c.Request.Context(), &alert); err != nil {
		requestLogger(c, h.logger).Error("create alert", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusCreated, alert)
}

// Alerts 列出提醒条件。
func (h *MeHandler) Alerts(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	alerts, err := h.engagement.Alerts(c.Request.Context(), userID)
	if err != nil {
		requestLogger(c, h.logger).Error("list alerts", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": alerts})
}

// DeleteAlert 删除提醒条件。
func (h *MeHandler) DeleteAlert(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	alertID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid alert id")
		return
	}
	if err := h.engagement.DeleteAlert(c.Request.Context(), userID, uint(alertID)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "alert not found")
			return
		}
		requestLogger(c, h.logger).Error("delete alert", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.Status(http.StatusNoContent)
}

func isAllOrEmpty(v, sentinel string) bool {
	return v == "" || v == sentinel
}
