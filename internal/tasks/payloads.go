package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeAlertMatch = "alert:match"
)

// AlertMatchPayload 描述一次“新职位 × 全部提醒条件”的匹配。
type AlertMatchPayload struct {
	JobID         string `json:"job_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewAlertMatchTask 构造提醒匹配任务。TaskID 按职位去重，同一职位只入队一次。
func NewAlertMatchTask(jobID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AlertMatchPayload{
		JobID:         jobID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAlertMatch, payload, asynq.TaskID("alert-match:"+jobID), asynq.MaxRetry(5)), nil
}

// ParseAlertMatchPayload 解析任务负载。
func ParseAlertMatchPayload(task *asynq.Task) (AlertMatchPayload, error) {
	var p AlertMatchPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal alert match payload: %w", err)
	}
	if p.JobID == "" {
		return p, fmt.Errorf("alert match payload missing job_id")
	}
	return p, nil
}
