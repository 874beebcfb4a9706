// Package metrics 定义 Prometheus 指标：HTTP、异步任务以及业务计数。
package metrics

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobboard"

// 不计入 HTTP 指标的运维路由。
var skippedRoutes = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时分布（秒）。",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route", "code"},
	)

	requestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP 请求总数，按路由模板与状态码段区分。",
		},
		[]string{"method", "route", "code"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "当前正在处理的 HTTP 请求数量。",
		},
	)
)

// GinMiddleware 采集 HTTP 指标。route 使用路由模板，未匹配的路径记为 "unmatched"；
// 状态码按 2xx/4xx 等分段，避免 AI 长耗时接口的细分状态撑大标签基数。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, skip := skippedRoutes[route]; skip {
			c.Next()
			return
		}

		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		code := statusClass(c.Writer.Status())
		requestDuration.WithLabelValues(c.Request.Method, route, code).Observe(time.Since(start).Seconds())
		requestTotal.WithLabelValues(c.Request.Method, route, code).Inc()
	}
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
