package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 固定窗口计数的 key 前缀。
const (
	loginRatePrefix  = "rate:login"
	logoUploadPrefix = "rate:logo"
	loginFailPrefix  = "lock:login:fail"
	loginLockPrefix  = "lock:login"
)

// windowKey 把计数 key 落到 window 对齐的时间桶里，桶过期后自然归零。
func windowKey(prefix, subject string, window time.Duration, now time.Time) string {
	bucket := now.UTC().Truncate(window).Unix()
	return fmt.Sprintf("%s:%s:%d", prefix, subject, bucket)
}

// countInWindow 在同一事务中执行 INCR 与 EXPIRE，返回自增后的值。
// 每次计数都会刷新 TTL：分桶 key 随窗口切换，失败计数则以最后一次失败为起点。
func countInWindow(ctx context.Context, client redis.UniversalClient, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", key, err)
	}
	return incr.Val(), nil
}
