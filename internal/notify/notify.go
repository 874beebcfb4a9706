// Package notify 通过 Redis Pub/Sub 向在线用户推送消息，WsHandler 订阅
// user_notify:<id> 频道并转发给前端。
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 消息类型。
const (
	KindPayment    = "payment"
	KindAlertMatch = "alert_match"
)

// Message 是统一的 WebSocket 消息协议。
// 注意：这里的字段名与前端解析保持一致。
type Message struct {
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	JobID         string `json:"job_id,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
	AlertID       uint   `json:"alert_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// Publisher 投递消息给指定用户。
type Publisher interface {
	Publish(ctx context.Context, userID uint, msg Message) error
}

// Channel 返回用户的通知频道名。
func Channel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// RedisPublisher 基于 Redis PUBLISH 实现 Publisher。
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher 构造 RedisPublisher。
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish 序列化并发布消息；没有订阅者时消息直接丢弃。
func (p *RedisPublisher) Publish(ctx context.Context, userID uint, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := Channel(userID)
	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
