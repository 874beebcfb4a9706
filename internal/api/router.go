package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/config"
	"jobBoard/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：CORS、关联 ID、请求日志、指标，以及健康检查与 /metrics。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.API.Origins())))
	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.SlogLoggerMiddleware(logger))
	router.Use(metrics.GinMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics",
		middleware.BearerSecretMiddleware(cfg.API.MetricsToken),
		gin.WrapH(promhttp.Handler()),
	)

	return router
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Correlation-ID"}
	c.ExposeHeaders = []string{"X-Correlation-ID"}
	return c
}
