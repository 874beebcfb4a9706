package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// SlogLoggerMiddleware 为每个请求注入带关联 ID 的 slog.Logger，并在结束时按状态码分级记录。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		reqLog := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", route),
		)
		c.Set(slogLoggerKey, reqLog)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		}
		if userID, ok := UserID(c); ok {
			attrs = append(attrs, slog.Uint64("user_id", uint64(userID)))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		reqLog.Log(c.Request.Context(), level, "request completed", attrs...)
	}
}

// LoggerFromContext 返回请求级 logger，缺失时使用 slog.Default()。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	return LoggerOr(c, nil)
}

// LoggerOr 返回请求级 logger，缺失时使用 fallback。
func LoggerOr(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if l, ok := value.(*slog.Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
