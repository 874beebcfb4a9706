package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook 事件数，按类型与处理结果区分。",
		},
		[]string{"event_type", "outcome"},
	)

	aiCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "AI 调用次数，按用途与结果区分。",
		},
		[]string{"kind", "outcome"},
	)

	alertMatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "matches_total",
			Help:      "新职位命中提醒条件的次数。",
		},
	)
)

// Webhook outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// ObserveWebhook 记录一次 webhook 处理结果。
func ObserveWebhook(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// ObserveAICall 记录一次 AI 调用，err 为 nil 记为 ok。
func ObserveAICall(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	aiCalls.WithLabelValues(kind, outcome).Inc()
}

// AddAlertMatches 累加提醒命中数。
func AddAlertMatches(n int) {
	if n > 0 {
		alertMatches.Add(float64(n))
	}
}
