// Package catalog 缓存已发布职位列表。筛选、排序、联想都在内存里对这份
// 列表进行，Redis 只保存序列化后的快照。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"jobBoard/internal/jobs"
)

// CacheKey 是已发布职位快照的 Redis 键。
const CacheKey = "catalog:published:v1"

// Source 提供已发布职位的权威数据。
type Source interface {
	ListPublished(ctx context.Context) ([]jobs.Listing, error)
}

// Catalog 是带 TTL 的读穿缓存。
type Catalog struct {
	source Source
	redis  redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// New 构造 Catalog。redisClient 为 nil 时直接读取 source。
func New(source Source, redisClient redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{source: source, redis: redisClient, ttl: ttl, logger: logger}
}

// Published 返回已发布职位。缓存不可用时降级为直接查询。
func (c *Catalog) Published(ctx context.Context) ([]jobs.Listing, error) {
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, CacheKey).Bytes()
		switch {
		case err == nil:
			var cached []jobs.Listing
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			c.logger.Warn("catalog cache payload corrupted, reloading", slog.Any("error", err))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("catalog cache read failed", slog.Any("error", err))
		}
	}

	listings, err := c.source.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("load published catalog: %w", err)
	}

	if c.redis != nil {
		if data, err := json.Marshal(listings); err == nil {
			if err := c.redis.Set(ctx, CacheKey, data, c.ttl).Err(); err != nil {
				c.logger.Warn("catalog cache write failed", slog.Any("error", err))
			}
		}
	}
	return listings, nil
}

// Invalidate 丢弃快照。任何改变已发布集合或计数的写操作之后调用。
func (c *Catalog) Invalidate(ctx context.Context) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, CacheKey).Err(); err != nil {
		c.logger.Warn("catalog cache invalidate failed", slog.Any("error", err))
	}
}
