package api

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/repository"
)

const defaultPreference = "All"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewsletterHandler 处理周报订阅。
type NewsletterHandler struct {
	subscribers *repository.SubscriberRepository
	logger      *slog.Logger
}

// NewNewsletterHandler 构造 NewsletterHandler。
func NewNewsletterHandler(subscribers *repository.SubscriberRepository, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{subscribers: subscribers, logger: logger}
}

type subscribeRequest struct {
	Email      string `json:"email"`
	Preference string `json:"preference"`
}

// Subscribe 按邮箱幂等订阅，重复订阅只更新偏好。
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	email := repository.NormalizeEmail(req.Email)
	if !emailPattern.MatchString(email) {
		BadRequest(c, "invalid email")
		return
	}
	preference := strings.TrimSpace(req.Preference)
	if preference == "" {
		preference = defaultPreference
	}

	sub, err := h.subscribers.Upsert(c.Request.Context(), email, preference)
	if err != nil {
		requestLogger(c, h.logger).Error("subscribe", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"email":      sub.Email,
		"preference": sub.Preference,
		"joined_at":  sub.CreatedAt,
	})
}
