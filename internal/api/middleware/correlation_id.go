package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationIDHeader 是请求与响应中携带关联 ID 的头。
const CorrelationIDHeader = "X-Correlation-ID"

const (
	correlationIDKey    = "correlationID"
	maxCorrelationIDLen = 64
)

// CorrelationIDMiddleware 复用客户端传入的关联 ID，不合法时重新生成，并回写到响应头。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if !validCorrelationID(id) {
			id = uuid.NewString()
		}
		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Next()
	}
}

// GetCorrelationID 从上下文中取出关联 ID，未经过中间件时返回空串。
func GetCorrelationID(c *gin.Context) string {
	id, _ := c.Get(correlationIDKey)
	s, _ := id.(string)
	return s
}

// 只接受可安全写入日志与响应头的字符。
func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
