package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/catalog"
	"jobBoard/internal/payment"
	"jobBoard/internal/plan"
	"jobBoard/internal/posting"
	"jobBoard/internal/repository"
)

// PostingsHandler 驱动三步发布流程并对接支付。
type PostingsHandler struct {
	repo     *repository.JobRepository
	checkout *payment.Checkout
	catalog  *catalog.Catalog
	logger   *slog.Logger
}

// NewPostingsHandler 构造 PostingsHandler。
func NewPostingsHandler(repo *repository.JobRepository, checkout *payment.Checkout, c *catalog.Catalog, logger *slog.Logger) *PostingsHandler {
	return &PostingsHandler{repo: repo, checkout: checkout, catalog: c, logger: logger}
}

type validateRequest struct {
	Step  string        `json:"step" binding:"required"`
	Draft posting.Draft `json:"draft"`
}

// Validate 对单个步骤执行字段校验，供表单即时提示。
// 校验通过且下一步为 review 时附带占位 logo。
func (h *PostingsHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	step, err := posting.ParseStep(req.Step)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	if err := posting.ValidateStep(step, req.Draft); err != nil {
		var verr *posting.ValidationError
		if errors.As(err, &verr) {
			ValidationFailed(c, verr.Step.String(), verr.Fields)
			return
		}
		BadRequest(c, err.Error())
		return
	}

	resp := gin.H{"ok": true, "step": step.String()}
	if step == posting.StepCompanyApply {
		logo := req.Draft.Logo
		if logo == "" {
			logo = posting.PlaceholderLogo(req.Draft.Company)
		}
		resp["logo"] = logo
	}
	c.JSON(http.StatusOK, resp)
}

type submitRequest struct {
	PlanType string        `json:"plan_type"`
	Draft    posting.Draft `json:"draft"`
}

// Submit 重放全部步骤校验，保存草稿职位并创建 Checkout Session。
func (h *PostingsHandler) Submit(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	selected := plan.Default()
	if req.PlanType != "" {
		p, err := plan.Parse(req.PlanType)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
		selected = p
	}

	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(
		slog.Uint64("user_id", uint64(userID)),
		slog.String("plan_type", string(selected.Type)),
	)

	wf, err := posting.Replay(selected, req.Draft)
	if err != nil {
		var verr *posting.ValidationError
		if errors.As(err, &verr) {
			ValidationFailed(c, verr.Step.String(), verr.Fields)
			return
		}
		BadRequest(c, err.Error())
		return
	}

	job, paymentURL, err := wf.Submit(ctx, payment.NewHandoff(h.repo, h.checkout, userID))
	if err != nil {
		var verr *posting.ValidationError
		switch {
		case errors.As(err, &verr):
			ValidationFailed(c, verr.Step.String(), verr.Fields)
		case errors.Is(err, payment.ErrCheckoutUnavailable):
			Unavailable(c, "payments are not configured")
		default:
			logger.Error("submit posting", slog.Any("error", err))
			Error(c, http.StatusBadGateway, "could not start checkout")
		}
		return
	}

	logger.Info("posting submitted", slog.String("job_id", job.ID))
	c.JSON(http.StatusCreated, gin.H{
		"job":         job,
		"plan":        wf.Plan(),
		"payment_url": paymentURL,
	})
}
