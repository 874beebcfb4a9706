package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobBoard/internal/api/middleware"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)                { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string)      { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)       { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)        { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)        { Error(c, http.StatusConflict, msg) }
func TooManyRequests(c *gin.Context, msg string) { Error(c, http.StatusTooManyRequests, msg) }
func Internal(c *gin.Context, msg string)        { Error(c, http.StatusInternalServerError, msg) }
func Unavailable(c *gin.Context, msg string)     { Error(c, http.StatusServiceUnavailable, msg) }

// ValidationFailed 返回 422 以及阻塞流转的字段列表。
func ValidationFailed(c *gin.Context, step string, fields []string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"step":   step,
		"fields": fields,
	})
}

// requestLogger 优先使用中间件注入的请求级 logger。
func requestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	return middleware.LoggerOr(c, fallback)
}
