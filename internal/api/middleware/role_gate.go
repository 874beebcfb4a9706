package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const forbiddenMessage = "forbidden"

// RequireRole 只放行指定角色，必须挂在 AuthMiddleware 之后。
// 角色来自 access token 声明，避免每次请求都查库。
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[Role(c)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": forbiddenMessage})
			return
		}
		c.Next()
	}
}
