package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/auth"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌并将 userID、role 注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, authService)
		if !ok {
			abortUnauthorized(c)
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware 在携带有效访问令牌时注入身份，否则按匿名请求继续。
func OptionalAuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := bearerClaims(c, authService); ok {
			c.Set(userIDKey, claims.UserID)
			c.Set(roleKey, claims.Role)
		}
		c.Next()
	}
}

func bearerClaims(c *gin.Context, authService *auth.AuthService) (*auth.TokenClaims, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}
	claims, err := authService.ValidateToken(parts[1], auth.TokenTypeAccess)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// UserID 返回当前登录用户 ID，未登录时 ok 为 false。
func UserID(c *gin.Context) (uint, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok && id > 0
}

// Role 返回当前登录用户角色。
func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}
