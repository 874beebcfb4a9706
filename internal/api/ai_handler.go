package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/ai"
	"jobBoard/internal/api/middleware"
)

// AIHandler 暴露职位描述草拟与简历诊断。
type AIHandler struct {
	client   *ai.Client
	inflight *ai.Inflight
	logger   *slog.Logger
}

// NewAIHandler 构造 AIHandler。
func NewAIHandler(client *ai.Client, logger *slog.Logger) *AIHandler {
	return &AIHandler{client: client, inflight: ai.NewInflight(), logger: logger}
}

type draftRequest struct {
	Title    string `json:"title"`
	Keywords string `json:"keywords"`
}

// Draft 根据标题与关键词生成职位描述。
func (h *AIHandler) Draft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	text, err := h.client.DraftDescription(c.Request.Context(), req.Title, req.Keywords)
	if err != nil {
		h.replyError(c, "draft", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"description": text})
}

type auditRequest struct {
	Text string `json:"text"`
}

// ResumeAudit 诊断简历。同一用户发起新请求时，旧请求被取消并返回 409。
func (h *AIHandler) ResumeAudit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	key := "ip:" + c.ClientIP()
	if userID, ok := middleware.UserID(c); ok {
		key = fmt.Sprintf("user:%d", userID)
	}
	ctx, release := h.inflight.Start(c.Request.Context(), key)
	defer release()

	audit, err := h.client.AuditResume(ctx, req.Text)
	if err != nil {
		if errors.Is(err, context.Canceled) && c.Request.Context().Err() == nil {
			Conflict(c, "superseded by a newer request")
			return
		}
		h.replyError(c, "resume_audit", err)
		return
	}
	c.JSON(http.StatusOK, audit)
}

func (h *AIHandler) replyError(c *gin.Context, kind string, err error) {
	logger := requestLogger(c, h.logger).With(slog.String("kind", kind))
	switch {
	case errors.Is(err, ai.ErrEmptyInput):
		if kind == "resume_audit" {
			BadRequest(c, "text is required")
			return
		}
		BadRequest(c, "title is required")
	case errors.Is(err, ai.ErrUnavailable):
		logger.Warn("ai unavailable")
		Unavailable(c, "ai service unavailable")
	case errors.Is(err, ai.ErrMalformed):
		logger.Error("ai returned malformed output", slog.Any("error", err))
		Internal(c, "ai returned an unreadable answer")
	default:
		logger.Error("ai call failed", slog.Any("error", err))
		Error(c, http.StatusBadGateway, "ai service error")
	}
}
