package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareLabelsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/v1/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/v1/jobs/:id", "4xx"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/def", nil))
	after := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/v1/jobs/:id", "4xx"))
	assert.Equal(t, 2.0, after-before)

	healthBefore := testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/health", "2xx"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, healthBefore, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "/health", "2xx")))
}

func TestAsynqMetricsMiddlewareOutcomes(t *testing.T) {
	cases := map[string]error{
		"ok":      nil,
		"retry":   errors.New("db down"),
		"dropped": errors.Join(errors.New("bad payload"), asynq.SkipRetry),
	}
	for outcome, err := range cases {
		h := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return err }))
		before := testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:task", outcome))
		got := h.ProcessTask(context.Background(), asynq.NewTask("test:task", nil))
		assert.Equal(t, err, got)
		assert.Equal(t, before+1, testutil.ToFloat64(taskProcessedTotal.WithLabelValues("test:task", outcome)), outcome)
	}
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(http.StatusCreated))
	assert.Equal(t, "5xx", statusClass(http.StatusServiceUnavailable))
}
