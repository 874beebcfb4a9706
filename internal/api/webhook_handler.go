package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/catalog"
	"jobBoard/internal/metrics"
	"jobBoard/internal/payment"
)

const maxWebhookBody = 64 * 1024

// WebhookHandler 接收 Stripe webhook。
type WebhookHandler struct {
	verifier  *payment.Verifier
	processor *payment.Processor
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

// NewWebhookHandler 构造 WebhookHandler。
func NewWebhookHandler(verifier *payment.Verifier, processor *payment.Processor, c *catalog.Catalog, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, processor: processor, catalog: c, logger: logger}
}

// Stripe 先验签再处理；验签失败直接 400，不落任何数据。
func (h *WebhookHandler) Stripe(c *gin.Context) {
	logger := requestLogger(c, h.logger)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		BadRequest(c, "unreadable body")
		return
	}
	if len(payload) > maxWebhookBody {
		metrics.ObserveWebhook("unverified", metrics.OutcomeRejected)
		logger.Warn("webhook body too large", slog.Int("limit", maxWebhookBody))
		Error(c, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			metrics.ObserveWebhook("unverified", metrics.OutcomeRejected)
			logger.Warn("webhook signature rejected")
			BadRequest(c, "invalid signature")
			return
		}
		Internal(c, "internal error")
		return
	}

	outcome, err := h.processor.Handle(c.Request.Context(), event)
	if err != nil {
		// 返回 5xx 让 Stripe 重投；去重键保证重投不会重复生效。
		logger.Error("webhook processing failed",
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.Any("error", err),
		)
		Internal(c, "internal error")
		return
	}
	if outcome == payment.OutcomeApplied && h.catalog != nil {
		h.catalog.Invalidate(c.Request.Context())
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
