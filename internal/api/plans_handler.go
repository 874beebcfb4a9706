package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/plan"
)

// PlansHandler 提供定价表与升级查询。
type PlansHandler struct{}

// NewPlansHandler 构造 PlansHandler。
func NewPlansHandler() *PlansHandler {
	return &PlansHandler{}
}

// List 返回全部档位。
func (h *PlansHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": plan.All()})
}

type upgradeRequest struct {
	PlanType string `json:"plan_type" binding:"required"`
}

// Upgrade 返回下一档位；已是最高档时原样返回。
func (h *PlansHandler) Upgrade(c *gin.Context) {
	var req upgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	current, err := plan.Parse(req.PlanType)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	next := plan.Upgrade(current.Type)
	c.JSON(http.StatusOK, gin.H{
		"plan":        next,
		"upgraded":    next.Type != current.Type,
		"can_upgrade": plan.CanUpgrade(next.Type),
	})
}
